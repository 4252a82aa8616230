package limiter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name   string
		cfg    Config
		errMsg string
	}{
		{name: "limit only", cfg: Config{Limit: 10}},
		{name: "offset only", cfg: Config{Offset: 5}},
		{name: "limit and offset", cfg: Config{Limit: 10, Offset: 5}},
		{name: "tail only", cfg: Config{Tail: 10}},
		{name: "tail ignores offset", cfg: Config{Tail: 10, Offset: 5}},
		{name: "limit and tail", cfg: Config{Limit: 10, Tail: 5}, errMsg: "mutually exclusive"},
		{name: "negative limit", cfg: Config{Limit: -1}, errMsg: "non-negative"},
		{name: "negative offset", cfg: Config{Offset: -1}, errMsg: "non-negative"},
		{name: "negative tail", cfg: Config{Tail: -1}, errMsg: "non-negative"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.errMsg == "" {
				require.NoError(t, err)
				return
			}
			require.ErrorContains(t, err, tt.errMsg)
		})
	}
}

func TestIsActive(t *testing.T) {
	assert.False(t, Config{}.IsActive())
	assert.True(t, Config{Limit: 1}.IsActive())
	assert.True(t, Config{Offset: 1}.IsActive())
	assert.True(t, Config{Tail: 1}.IsActive())
}

func TestApply(t *testing.T) {
	ids := []string{"t1", "t2", "t3", "t4", "t5"}
	tests := []struct {
		name string
		cfg  Config
		want []string
	}{
		{"inactive", Config{}, ids},
		{"limit", Config{Limit: 2}, []string{"t1", "t2"}},
		{"offset", Config{Offset: 3}, []string{"t4", "t5"}},
		{"offset and limit", Config{Offset: 1, Limit: 2}, []string{"t2", "t3"}},
		{"limit past end", Config{Offset: 4, Limit: 10}, []string{"t5"}},
		{"offset past end", Config{Offset: 9}, []string{}},
		{"tail", Config{Tail: 2}, []string{"t4", "t5"}},
		{"tail longer than list", Config{Tail: 9}, ids},
		{"tail ignores offset", Config{Tail: 1, Offset: 2}, []string{"t5"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Apply(tt.cfg, ids))
		})
	}
}

func TestApplyEmpty(t *testing.T) {
	assert.Empty(t, Apply(Config{Limit: 3}, []int(nil)))
	start, end := Config{Tail: 3}.Bounds(0)
	assert.Equal(t, 0, start)
	assert.Equal(t, 0, end)
}
