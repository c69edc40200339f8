package classify

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLooksLikeCommandOutput(t *testing.T) {
	// Table header plus table rows: two distinct indicator kinds
	text := "NAME   STATUS\npod-1  Running\npod-2  Pending"
	assert.True(t, LooksLikeCommandOutput(text))

	// Prose with a single stray token is not output
	assert.False(t, LooksLikeCommandOutput("Please check the STATUS of the deployment when you get a chance."))

	assert.False(t, LooksLikeCommandOutput(""))
}

func TestLooksLikeCommandOutput_DistinctKindsNotOccurrences(t *testing.T) {
	// "----" repeated many times is still one indicator kind
	assert.False(t, LooksLikeCommandOutput("----\n----\n----\n----"))

	// Separator plus log-format lines are two kinds
	assert.True(t, LooksLikeCommandOutput("----\n[INFO] starting worker"))
}

func TestIsCommandLine(t *testing.T) {
	cases := []struct {
		line string
		want bool
	}{
		{"$ kubectl get pods", true},
		{"# apt-get update", true},
		{"> npm install", true},
		{"root@host:/# ls", true},
		{"PS C:\\Users> dir", true},
		{`C:\Users\dev> dir`, true},
		{"kubectl get pods -n default", true},
		{"docker-compose up -d", true},
		{"", false},
		{"   ", false},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, IsCommandLine(tc.line), "line: %q", tc.line)
	}
}

func TestIsOutputLine(t *testing.T) {
	cases := []struct {
		line string
		want bool
	}{
		{"pod-1  Running", true},         // double space
		{"pod-1\tRunning", true},         // tab
		{"1. restart the service", true}, // numbered list
		{"* item", true},                 // bullet
		{"replicas: 3", true},            // key-value
		{"[INFO] started", true},         // log prefix
		{"2024-01-15 12:00:01 booted", true},
		{"", false},
		{"plain sentence with single spaces", false},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, IsOutputLine(tc.line), "line: %q", tc.line)
	}
}

func TestIsTechnicalURL(t *testing.T) {
	assert.True(t, IsTechnicalURL("https://grafana.example.com/d/abc"))
	assert.True(t, IsTechnicalURL("https://console.aws.amazon.com/ec2"))
	assert.True(t, IsTechnicalURL("https://myapp.example.com/admin/users"))
	assert.False(t, IsTechnicalURL("https://example.com/cat.png"))
}

func TestIsInlineCommand(t *testing.T) {
	assert.True(t, IsInlineCommand("kubectl get pods"))
	assert.True(t, IsInlineCommand("a/b/c/d"))
	assert.False(t, IsInlineCommand("foo"))          // too short
	assert.False(t, IsInlineCommand("identifier"))   // no technical chars
	assert.False(t, IsInlineCommand("ab cd"))        // shorter than 6
}
