package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSignParams(t *testing.T) {
	params := map[string]string{
		"timestamp": "1700000000",
		"public_id": "abc",
		"folder":    "sdssn/credentials",
	}
	assert.Equal(t, "848b10a8a7a92f5cbb7ed8447256ffb055fa5e4b", signParams(params, "s3cr3t"))
}
