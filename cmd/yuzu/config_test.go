package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadConfig(t *testing.T) {
	assert := assert.New(t)

	path := writeFile(t, "yuzu.toml", `
[trace]
level = "Debug"

[compile]
compression = 0
conflicts_as_errors = true

[parse]
max_stack_depth = 100
`)
	c, err := loadConfig(path)
	if err != nil {
		t.Fatal(err)
	}
	assert.Equal("Debug", c.Trace.Level)
	assert.Equal(0, c.Compile.Compression)
	assert.True(c.Compile.ConflictsAsErrors)
	assert.True(c.Compile.Report)
	assert.True(c.Parse.Recovery)
	assert.Equal(100, c.Parse.MaxStackDepth)
	assert.Len(c.compileOptions(), 3)
}

func TestLoadConfig_Errors(t *testing.T) {
	tests := []struct {
		caption string
		content string
	}{
		{
			caption: "an unknown key",
			content: "[compile]\ncompresion = 1\n",
		},
		{
			caption: "an invalid compression level",
			content: "[compile]\ncompression = 3\n",
		},
		{
			caption: "a negative stack depth",
			content: "[parse]\nmax_stack_depth = -1\n",
		},
		{
			caption: "an invalid trace level",
			content: "[trace]\nlevel = \"verbose\"\n",
		},
		{
			caption: "a malformed file",
			content: "[compile\n",
		},
	}
	for _, tt := range tests {
		t.Run(tt.caption, func(t *testing.T) {
			_, err := loadConfig(writeFile(t, "yuzu.toml", tt.content))
			assert.Error(t, err)
		})
	}

	_, err := loadConfig(filepath.Join(t.TempDir(), "missing.toml"))
	assert.Error(t, err)
}

func TestLoadConfig_Default(t *testing.T) {
	wd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(t.TempDir()); err != nil {
		t.Fatal(err)
	}
	defer os.Chdir(wd)

	c, err := loadConfig("")
	assert.NoError(t, err)
	assert.Equal(t, defaultConfig(), c)
}
