package postcard

import (
	"encoding/base64"
	"encoding/json"
	"time"
)

// Cursor resumes a descending time-ordered scan after the last row of a
// prior page. Callers receive it base64-encoded and must round-trip it
// verbatim; the wire form is an implementation detail they must not parse.
type Cursor struct {
	SentAt     time.Time `json:"sentAt"`
	PostcardID string    `json:"postcardId"`
}

func (c Cursor) Encode() string {
	raw, err := json.Marshal(c)
	if err != nil {
		// Cursor marshals two scalar fields; this cannot fail.
		return ""
	}
	return base64.RawURLEncoding.EncodeToString(raw)
}

// DecodeCursor parses a resume token previously produced by Encode. Any
// token that does not decode back to a cursor is rejected.
func DecodeCursor(token string) (Cursor, error) {
	var c Cursor
	raw, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return c, err
	}
	if err := json.Unmarshal(raw, &c); err != nil {
		return c, err
	}
	return c, nil
}
