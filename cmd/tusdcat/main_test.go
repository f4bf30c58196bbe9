package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCompositionCSVAcceptsAllTokens(t *testing.T) {
	arcs, err := parseCompositionCSV("l,i,v,r,p,s")
	require.NoError(t, err)
	assert.Len(t, arcs, 6)
	assert.True(t, arcs["references"])
	assert.True(t, arcs["specializes"])
}

func TestParseCompositionCSVRejectsUnknownToken(t *testing.T) {
	_, err := parseCompositionCSV("l,x")
	assert.Error(t, err)
}

func TestParseCompositionCSVIgnoresBlankEntries(t *testing.T) {
	arcs, err := parseCompositionCSV("l,,r")
	require.NoError(t, err)
	assert.Len(t, arcs, 2)
}
