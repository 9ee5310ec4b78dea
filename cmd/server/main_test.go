package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCurlHostForListenAddr(t *testing.T) {
	tests := []struct {
		listenAddr string
		want       string
	}{
		{":8080", "localhost:8080"},
		{"127.0.0.1:9000", "127.0.0.1:9000"},
		{"0.0.0.0:8080", "localhost:8080"},
		{"[::]:8080", "localhost:8080"},
		{"[::1]:8080", "[::1]:8080"},
		{"  :7070  ", "localhost:7070"},
		{"", "localhost:8080"},
		{"   ", "localhost:8080"},
		{"localhost", "localhost"},
	}
	for _, tc := range tests {
		t.Run(tc.listenAddr, func(t *testing.T) {
			assert.Equal(t, tc.want, curlHostForListenAddr(tc.listenAddr))
		})
	}
}
