package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"holdermap/internal/domain"
)

func testToken() *domain.TokenMetadata {
	return &domain.TokenMetadata{
		Name:        "Bonk",
		Symbol:      "BONK",
		Address:     "DezXAZ8z7PnrnRJjz3wXBoRgixCa6xjnB7YaB1pPB263",
		TotalSupply: 4_000_000,
		Decimals:    5,
		Holders: []domain.Holder{
			{Address: "holder-a", Balance: 2_000_000, Kind: domain.HolderWallet},
			{Address: "holder-b", Balance: 1_000_000, Kind: domain.HolderProgram},
			{Address: "holder-c", Balance: 1_000_000, Kind: domain.HolderWallet},
		},
	}
}

func TestPrintSummary(t *testing.T) {
	color.NoColor = true

	var buf bytes.Buffer
	printSummary(&buf, testToken(), 2)
	out := buf.String()

	assert.Contains(t, out, "Bonk ($BONK)")
	assert.Contains(t, out, "Total Supply: 4.00M")
	assert.Contains(t, out, "Holders:      3")
	assert.Contains(t, out, "Centralization")
	assert.Contains(t, out, "high")
	assert.Contains(t, out, "holder-a")
	assert.Contains(t, out, "50.00%")
	assert.NotContains(t, out, "holder-c")
}

func TestPrintSummary_NegativeTop(t *testing.T) {
	color.NoColor = true

	var buf bytes.Buffer
	require.NotPanics(t, func() { printSummary(&buf, testToken(), -1) })
	assert.Contains(t, buf.String(), "Bonk ($BONK)")
	assert.NotContains(t, buf.String(), "holder-a")
}

func TestWriteSVG(t *testing.T) {
	path := filepath.Join(t.TempDir(), "graph.svg")

	require.NoError(t, writeSVG(context.Background(), path, testToken()))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "<svg")
	assert.True(t, strings.HasSuffix(strings.TrimSpace(string(data)), "</svg>"))
}
