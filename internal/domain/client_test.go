package domain

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateName(t *testing.T) {
	tests := map[string]struct {
		name string
		want error
	}{
		"ok":        {name: "ein csgo server"},
		"at limit":  {name: strings.Repeat("x", MaxNameLen)},
		"empty":     {name: "", want: ErrNameEmpty},
		"too long":  {name: strings.Repeat("x", MaxNameLen+1), want: ErrNameTooLong},
		"multibyte": {name: strings.Repeat("é", MaxNameLen/2+1), want: ErrNameTooLong},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			assert.ErrorIs(t, ValidateName(tt.name), tt.want)
		})
	}
}
