package repositories

import (
	"crypto/rand"
	"encoding/base32"
	"fmt"
	"strings"

	"golang.org/x/crypto/blake2b"
	"golang.org/x/crypto/curve25519"

	"briar-gateway/internal/models"
)

const (
	linkScheme        = "briar://"
	linkFormatVersion = 0
	handshakeKeyLen   = curve25519.PointSize
)

var linkEncoding = base32.StdEncoding.WithPadding(base32.NoPadding)

// pendingContactIDLabel separates pending contact ids from other hashes of the same key.
var pendingContactIDLabel = []byte("briar-gateway/pending-contact-id")

// encodeHandshakeLink builds a link carrying publicKey.
func encodeHandshakeLink(publicKey []byte) string {
	payload := make([]byte, 0, 1+len(publicKey))
	payload = append(payload, linkFormatVersion)
	payload = append(payload, publicKey...)
	return linkScheme + strings.ToLower(linkEncoding.EncodeToString(payload))
}

// parseHandshakeLink returns the public key carried by link. Malformed links and links of an
// unsupported format version yield models.ErrInvalidLink.
func parseHandshakeLink(link string) ([]byte, error) {
	encoded := strings.TrimPrefix(link, linkScheme)
	payload, err := linkEncoding.DecodeString(strings.ToUpper(encoded))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrInvalidLink, err)
	}
	if len(payload) != 1+handshakeKeyLen {
		return nil, fmt.Errorf("%w: payload is %d bytes", models.ErrInvalidLink, len(payload))
	}
	if payload[0] != linkFormatVersion {
		return nil, fmt.Errorf("%w: unsupported format version %d", models.ErrInvalidLink, payload[0])
	}
	return payload[1:], nil
}

// checkHandshakeKey rejects keys that cannot produce a shared secret with ours, such as
// low-order points.
func checkHandshakeKey(ourPrivateKey, theirPublicKey []byte) error {
	if _, err := curve25519.X25519(ourPrivateKey, theirPublicKey); err != nil {
		return fmt.Errorf("%w: %v", models.ErrInvalidPublicKey, err)
	}
	return nil
}

func pendingContactID(publicKey []byte) models.PendingContactID {
	h, _ := blake2b.New256(nil)
	h.Write(pendingContactIDLabel)
	h.Write(publicKey)
	return h.Sum(nil)
}

// newHandshakeKeyPair generates an X25519 key pair.
func newHandshakeKeyPair() (public, private []byte, err error) {
	private = make([]byte, curve25519.ScalarSize)
	if _, err := rand.Read(private); err != nil {
		return nil, nil, fmt.Errorf("generate handshake key: %w", err)
	}
	public, err = curve25519.X25519(private, curve25519.Basepoint)
	if err != nil {
		return nil, nil, fmt.Errorf("derive handshake key: %w", err)
	}
	return public, private, nil
}
