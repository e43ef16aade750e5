package domain

type Profile struct {
	Email       string `json:"email"`
	FullName    string `json:"fullName"`
	DateOfBirth string `json:"dateOfBirth"`
}

type Credential struct {
	Email        string
	PasswordHash string
}
