package iocli

import (
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewStdio(t *testing.T) {
	stdio := NewStdio()
	assert.NotNil(t, stdio)
}

// Println и Printf переадресуют в fmt, проверяем только что не паникуют
func TestPrintlnAndPrintf(t *testing.T) {
	stdio := NewStdio()

	assert.NotPanics(t, func() {
		stdio.Println("hello", "world")
	})
	assert.NotPanics(t, func() {
		stdio.Printf("test %d %s", 1, "abc")
	})
}

// подменяет os.Stdin на pipe с заданным содержимым
func withStdin(t *testing.T, input string) {
	t.Helper()

	r, w, err := os.Pipe()
	assert.NoError(t, err)

	go func() {
		_, _ = w.Write([]byte(input))
		_ = w.Close()
	}()

	oldStdin := os.Stdin
	t.Cleanup(func() { os.Stdin = oldStdin })
	os.Stdin = r
}

func TestReadInput(t *testing.T) {
	input := "user input\n"
	withStdin(t, input)

	stdio := NewStdio()
	result, err := stdio.ReadInput("Prompt: ")
	assert.NoError(t, err)
	assert.Equal(t, strings.TrimSpace(input), result)
}

// Когда stdin не терминал (pipe), ReadPassword должен
// переключиться на обычное построчное чтение
func TestReadPasswordFromPipe(t *testing.T) {
	withStdin(t, "secret-pass\n")

	stdio := NewStdio()
	result, err := stdio.ReadPassword("Password: ")
	assert.NoError(t, err)
	assert.Equal(t, "secret-pass", result)
}
