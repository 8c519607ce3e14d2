package models

import "time"

// BankItem is one linked institution. The provider access token is held
// only in sealed form; plaintext never touches the database.
type BankItem struct {
	ID                string
	UserID            string
	ProviderItemID    string
	AccessTokenCipher []byte
	Institution       string
	LinkedAt          time.Time
}
