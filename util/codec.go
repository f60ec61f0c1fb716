package util

import (
	"crypto/cipher"
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"

	"golang.org/x/crypto/blake2b"
	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/scrypt"
)

// ErrDecode is matched by every error returned from Codec.Decode.
var ErrDecode = errors.New("invalid token")

// DecodeError reports a token that was malformed or not produced by this codec.
type DecodeError struct {
	Token  string
	Reason string
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode %q: %s", e.Token, e.Reason)
}

func (e *DecodeError) Is(target error) bool {
	return target == ErrDecode
}

const codecSalt = "dasdADD123@#as84373^!$*&!#$1#12#"

var tokenEncoding = base64.RawURLEncoding

// Codec turns upstream urls into opaque url-safe tokens and back.
// Tokens are deterministic: the nonce is a keyed hash of the plaintext,
// so the same url always maps to the same token and Decode can verify it.
type Codec struct {
	aead   cipher.AEAD
	macKey []byte
}

// NewCodec derives the key material from secret. Deriving is slow on
// purpose, call it once per process.
func NewCodec(secret string) (*Codec, error) {
	dk, err := scrypt.Key([]byte(secret), []byte(codecSalt), 16384, 8, 1, chacha20poly1305.KeySize+32)
	if err != nil {
		return nil, err
	}
	aead, err := chacha20poly1305.NewX(dk[:chacha20poly1305.KeySize])
	if err != nil {
		return nil, err
	}
	return &Codec{
		aead:   aead,
		macKey: dk[chacha20poly1305.KeySize:],
	}, nil
}

// RandomSecret returns a fresh secret for processes started without one.
func RandomSecret() string {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		panic(err)
	}
	return tokenEncoding.EncodeToString(b)
}

func (c *Codec) nonce(plain []byte) []byte {
	h, _ := blake2b.New(chacha20poly1305.NonceSizeX, c.macKey)
	h.Write(plain)
	return h.Sum(nil)
}

func (c *Codec) Encode(plain string) string {
	p := []byte(plain)
	nonce := c.nonce(p)
	out := make([]byte, 0, len(nonce)+len(p)+c.aead.Overhead())
	out = append(out, nonce...)
	out = c.aead.Seal(out, nonce, p, nil)
	return tokenEncoding.EncodeToString(out)
}

func (c *Codec) Decode(token string) (string, error) {
	raw, err := tokenEncoding.DecodeString(token)
	if err != nil {
		return "", &DecodeError{Token: token, Reason: "bad alphabet"}
	}
	ns := chacha20poly1305.NonceSizeX
	if len(raw) < ns+c.aead.Overhead() {
		return "", &DecodeError{Token: token, Reason: "too short"}
	}
	nonce, sealed := raw[:ns], raw[ns:]
	plain, err := c.aead.Open(nil, nonce, sealed, nil)
	if err != nil {
		return "", &DecodeError{Token: token, Reason: "authentication failed"}
	}
	// a token sealed under our key but with a foreign nonce was not made by Encode
	if subtle.ConstantTimeCompare(nonce, c.nonce(plain)) != 1 {
		return "", &DecodeError{Token: token, Reason: "nonce mismatch"}
	}
	return string(plain), nil
}
