package concierge

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"  Where IS the  Library?? ", "where is the library"},
		{"CIT-Hall/Main_Gate", "cit hall main gate"},
		{"", ""},
		{"!!!", ""},
		{"Room 101, Block B", "room 101 block b"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, Normalize(tt.in))
		})
	}
}

func TestTokenize(t *testing.T) {
	assert.Equal(t, []string{"exam", "office"}, Tokenize("Exam-Office!"))
	assert.Empty(t, Tokenize("  "))
}

func TestContainsPhrase(t *testing.T) {
	assert.True(t, containsPhrase("where is the mess", "mess"))
	assert.True(t, containsPhrase("lost and found desk", "lost and found"))
	assert.False(t, containsPhrase("messages", "mess"))
	assert.False(t, containsPhrase("anything", ""))
}

func TestTrimFiller(t *testing.T) {
	assert.Equal(t, "mess", trimFiller("the mess please"))
	assert.Equal(t, "main gate", trimFiller("a the main gate now"))
	assert.Equal(t, "library", trimFiller("library located"))
}
