package zipstream_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sagarc03/zipstream"
)

func TestIsValidArchiveID(t *testing.T) {
	tt := []struct {
		Name string
		ID   string
		Want bool
	}{
		// Basics
		{Name: "empty", ID: "", Want: false},
		{Name: "single dot", ID: ".", Want: false},
		{Name: "double dot", ID: "..", Want: false},
		{Name: "too long", ID: strings.Repeat("a", zipstream.MaxArchiveIDLength+1), Want: false},
		{Name: "max length", ID: strings.Repeat("a", zipstream.MaxArchiveIDLength), Want: true},

		// Path elements
		{Name: "slash", ID: "wedding1/reception", Want: false},
		{Name: "leading slash", ID: "/wedding1", Want: false},
		{Name: "trailing slash", ID: "wedding1/", Want: false},
		{Name: "backslash", ID: `wedding1\reception`, Want: false},
		{Name: "parent traversal", ID: "../wedding1", Want: false},

		// Option injection
		{Name: "leading dash", ID: "-r", Want: false},
		{Name: "double dash", ID: "--help", Want: false},

		// Forbidden characters
		{Name: "space", ID: "wedding 1", Want: false},
		{Name: "tab", ID: "wedding\t1", Want: false},
		{Name: "newline", ID: "wedding\n1", Want: false},
		{Name: "NUL", ID: "wedding\x001", Want: false},
		{Name: "DEL", ID: "wedding\x7f", Want: false},
		{Name: "semicolon", ID: "wedding1;ls", Want: false},
		{Name: "dollar", ID: "$HOME", Want: false},
		{Name: "glob", ID: "wedding*", Want: false},
		{Name: "quote", ID: `wedding"1`, Want: false},
		{Name: "tilde", ID: "~root", Want: false},
		{Name: "non ascii", ID: "hochzeit-münchen", Want: false},

		// Valid examples
		{Name: "simple", ID: "wedding1", Want: true},
		{Name: "upper case", ID: "Wedding1", Want: true},
		{Name: "dots inside", ID: "2024.06.party", Want: true},
		{Name: "underscore and dash", ID: "summer_trip-2024", Want: true},
		{Name: "trailing dash", ID: "wedding-", Want: true},
		{Name: "hidden name", ID: ".cache", Want: true},
		{Name: "double dots inside", ID: "a..b", Want: true},
	}

	for _, tc := range tt {
		t.Run(tc.Name, func(t *testing.T) {
			assert.Equal(t, tc.Want, zipstream.IsValidArchiveID(tc.ID), "IsValidArchiveID(%q)", tc.ID)
		})
	}
}

func TestValidateArchiveID(t *testing.T) {
	assert.NoError(t, zipstream.ValidateArchiveID("wedding1"))

	err := zipstream.ValidateArchiveID("../etc")
	assert.ErrorIs(t, err, zipstream.ErrInvalidInput)
	assert.Contains(t, err.Error(), `"../etc"`)
}
