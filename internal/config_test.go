package internal

import (
	"testing"
	"time"

	"github.com/Netflix/go-env"
	"github.com/stretchr/testify/require"
)

func TestCharacterRune(t *testing.T) {
	req := require.New(t)

	r, err := CharacterRune("#")
	req.NoError(err)
	req.Equal('#', r)

	r, err = CharacterRune("€")
	req.NoError(err)
	req.Equal('€', r)

	_, err = CharacterRune("")
	req.Error(err)
	_, err = CharacterRune("**")
	req.Error(err)
}

func TestConfig_Defaults(t *testing.T) {
	req := require.New(t)
	t.Setenv("DIRECTORY_SEED_FILE", "users.yaml")
	t.Setenv("RING_TIMEOUT", "30s")

	var config Config
	_, err := env.UnmarshalFromEnviron(&config)
	req.NoError(err)

	req.Equal("users.yaml", config.DirectorySeedFile)
	req.Equal(30*time.Second, config.RingTimeout)
	req.Equal(256, config.BufferSize)
	req.Equal(2*time.Second, config.SinkTimeout)
	req.True(config.ModerationEnabled)
	req.Equal("*", config.CharReplacement)
	req.Empty(config.BadgerFilepath)
	req.Nil(config.LimitMessages)
}
