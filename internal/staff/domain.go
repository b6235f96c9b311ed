package staff

import "time"

// Staff is a pegawai record. NIP is the government employee number and
// is unique across the office.
type Staff struct {
	ID        int64     `json:"id"`
	NIP       string    `json:"nip"`
	Name      string    `json:"name"`
	Position  string    `json:"position"`
	Unit      string    `json:"unit"`
	Grade     string    `json:"grade"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
