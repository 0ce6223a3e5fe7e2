package utils

import (
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

const (
	serialHexLen      = 13
	serialMaxAttempts = 5
)

var ErrSerialExhausted = errors.New("could not allocate a unique certificate serial")

// SerialGenerator issues certificate serials of the form PREFIX + 13 upper
// hex characters and membership codes of the form PREFIX-M-000042.
type SerialGenerator struct {
	Prefix string
	// random is swapped in tests.
	random func() string
}

func NewSerialGenerator(prefix string) *SerialGenerator {
	return &SerialGenerator{Prefix: prefix, random: randomHex}
}

// randomHex drops the version byte of a v4 UUID so every returned hex
// character is random.
func randomHex() string {
	u := uuid.New()
	b := make([]byte, 0, 15)
	b = append(b, u[0:6]...)
	b = append(b, u[7:]...)
	return hex.EncodeToString(b)
}

func (g *SerialGenerator) NextCertificateSerial(exists func(serial string) (bool, error)) (string, error) {
	random := g.random
	if random == nil {
		random = randomHex
	}
	for attempt := 0; attempt < serialMaxAttempts; attempt++ {
		serial := g.Prefix + strings.ToUpper(random()[:serialHexLen])
		taken, err := exists(serial)
		if err != nil {
			return "", err
		}
		if !taken {
			return serial, nil
		}
	}
	return "", ErrSerialExhausted
}

func (g *SerialGenerator) MembershipCode(membershipID uint) string {
	return fmt.Sprintf("%s-M-%06d", g.Prefix, membershipID)
}
