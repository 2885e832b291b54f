// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package qrticket issues and verifies booking tickets. The QR payload is
// the booking identity sealed with XChaCha20-Poly1305, so a scanned code
// proves it was issued by this temple's backend and has not been altered.
package qrticket

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	qrcode "github.com/skip2/go-qrcode"
	"golang.org/x/crypto/chacha20poly1305"
)

// ErrInvalidTicket is returned when a scanned payload cannot be decrypted
// or decoded — a forged, truncated, or foreign QR code.
var ErrInvalidTicket = errors.New("invalid ticket payload")

// qrSize is the pixel width of generated ticket images.
const qrSize = 256

// Ticket is the plaintext carried inside a booking QR code.
type Ticket struct {
	BookingID uuid.UUID `json:"booking_id"`
	Reference string    `json:"reference"`
	SlotID    uuid.UUID `json:"slot_id"`
	IssuedAt  time.Time `json:"issued_at"`
}

// Issuer seals and opens ticket payloads with a shared symmetric key.
type Issuer struct {
	key []byte
}

// NewIssuer creates an Issuer from a hex-encoded 32-byte key (the
// TICKET_KEY configuration value).
func NewIssuer(hexKey string) (*Issuer, error) {
	key, err := hex.DecodeString(hexKey)
	if err != nil {
		return nil, fmt.Errorf("ticket key decode: %w", err)
	}
	if len(key) != chacha20poly1305.KeySize {
		return nil, fmt.Errorf("ticket key must be %d bytes, got %d", chacha20poly1305.KeySize, len(key))
	}
	return &Issuer{key: key}, nil
}

// Seal encrypts a ticket into the base64 string embedded in the QR code.
// The random nonce is prepended to the ciphertext.
func (i *Issuer) Seal(t *Ticket) (string, error) {
	aead, err := chacha20poly1305.NewX(i.key)
	if err != nil {
		return "", fmt.Errorf("ticket seal: %w", err)
	}

	plain, err := json.Marshal(t)
	if err != nil {
		return "", fmt.Errorf("ticket encode: %w", err)
	}

	nonce := make([]byte, aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("ticket nonce: %w", err)
	}

	sealed := aead.Seal(nonce, nonce, plain, nil)
	return base64.RawURLEncoding.EncodeToString(sealed), nil
}

// Open decrypts a scanned payload back into a Ticket. Any tampering or a
// payload sealed under a different key yields ErrInvalidTicket.
func (i *Issuer) Open(payload string) (*Ticket, error) {
	sealed, err := base64.RawURLEncoding.DecodeString(payload)
	if err != nil {
		return nil, ErrInvalidTicket
	}

	aead, err := chacha20poly1305.NewX(i.key)
	if err != nil {
		return nil, fmt.Errorf("ticket open: %w", err)
	}
	if len(sealed) < aead.NonceSize() {
		return nil, ErrInvalidTicket
	}

	nonce, ciphertext := sealed[:aead.NonceSize()], sealed[aead.NonceSize():]
	plain, err := aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, ErrInvalidTicket
	}

	var t Ticket
	if err := json.Unmarshal(plain, &t); err != nil {
		return nil, ErrInvalidTicket
	}
	return &t, nil
}

// PNG renders a sealed payload as a QR code image.
func PNG(payload string) ([]byte, error) {
	png, err := qrcode.Encode(payload, qrcode.Medium, qrSize)
	if err != nil {
		return nil, fmt.Errorf("ticket qr encode: %w", err)
	}
	return png, nil
}
