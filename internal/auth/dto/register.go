package dto

type RegisterInput struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	Fingerprint string `json:"-"`
	IPAddress   string `json:"-"`
	UserAgent   string `json:"-"`
}
