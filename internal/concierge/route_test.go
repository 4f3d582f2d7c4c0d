package concierge

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractRoute(t *testing.T) {
	tests := []struct {
		name  string
		query string
		want  RoutePair
		ok    bool
	}{
		{"from to", "Show me directions from Pulchowk Library to Campus Mess", RoutePair{"pulchowk library", "campus mess"}, true},
		{"from to with filler", "How do I get from the Main Gate to CIT Hall please?", RoutePair{"main gate", "cit hall"}, true},
		{"between and", "walking distance between exam office and the clinic", RoutePair{"exam office", "clinic"}, true},
		{"bare to", "library to mess", RoutePair{"library", "mess"}, true},
		{"leading interrogative", "how to apply for hostel", RoutePair{}, false},
		{"leading verb", "i want to go to the library", RoutePair{}, false},
		{"short fragment", "ab to cd", RoutePair{}, false},
		{"short start after from", "from x to mess", RoutePair{}, false},
		{"no pattern", "where is the library", RoutePair{}, false},
		{"empty", "", RoutePair{}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ExtractRoute(tt.query)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestIsRouteShaped(t *testing.T) {
	assert.True(t, IsRouteShaped("from library to mess"))
	assert.True(t, IsRouteShaped("directions to the observatory"))
	assert.True(t, IsRouteShaped("can you navigate me"))
	assert.False(t, IsRouteShaped("where is the library"))
	assert.False(t, IsRouteShaped("how to apply for hostel"))
}
