package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPasswdCmd(t *testing.T) {
	assert.Equal(t, 2, passwdCmd(nil))
	assert.Equal(t, 2, passwdCmd([]string{"-p", "x", "-cost", "1"}))
	assert.Equal(t, 2, passwdCmd([]string{"-unknown"}))
	assert.Equal(t, 0, passwdCmd([]string{"-p", "secret1", "-cost", "4"}))
}
