package compiler

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conneroisu/tsxrunner/internal/errors"
)

const buttonSource = `
import React from 'react';
import { Button } from '@fluentui/react-components';

interface Props {
    value: string
}

const Greeting = (props: Props) => <Button appearance="primary">{props.value}</Button>;

export default Greeting;
`

func TestCompileProducesCommonJS(t *testing.T) {
	c := New(Options{})

	script, err := c.Compile(context.Background(), buttonSource)
	require.NoError(t, err)

	assert.Equal(t, DefaultFilename, script.Filename)
	assert.Contains(t, script.Code, `require("react")`)
	assert.Contains(t, script.Code, `require("@fluentui/react-components")`)
	assert.Contains(t, script.Code, "createElement")
	assert.Contains(t, script.Code, "module.exports")
	assert.NotContains(t, script.Code, "interface Props")
}

func TestCompileKeepsUnusedImports(t *testing.T) {
	c := New(Options{})

	script, err := c.Compile(context.Background(), `import { x } from "unknown-package";`+"\nexport default 1;\n")
	require.NoError(t, err)
	assert.Contains(t, script.Code, `require("unknown-package")`)
}

func TestCompileSyntaxError(t *testing.T) {
	c := New(Options{})

	_, err := c.Compile(context.Background(), "const = 5;\nexport default 1;")
	require.Error(t, err)
	assert.True(t, errors.IsCompileError(err))

	pe := errors.As(err)
	assert.Equal(t, 1, pe.Line)
	assert.Greater(t, pe.Column, 0)
	assert.True(t, strings.HasPrefix(pe.Message, DefaultFilename+":1:"), pe.Message)
}

func TestCompileEmptyOutput(t *testing.T) {
	c := New(Options{})

	_, err := c.Compile(context.Background(), "  \n")
	require.Error(t, err)
	assert.True(t, errors.IsCompileError(err))
	assert.Equal(t, emptyOutputMessage, err.Error())
}

func TestCompileSizeLimit(t *testing.T) {
	c := New(Options{MaxSourceBytes: 16})

	_, err := c.Compile(context.Background(), strings.Repeat("/* pad */", 10))
	require.Error(t, err)
	assert.True(t, errors.IsCompileError(err))
	assert.Contains(t, err.Error(), "exceeds the 16 byte limit")
}

func TestCompileCancelled(t *testing.T) {
	c := New(Options{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.Compile(ctx, buttonSource)
	require.Error(t, err)
	assert.True(t, errors.IsCompileError(err))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestCompileIsPure(t *testing.T) {
	c := New(Options{})

	first, err := c.Compile(context.Background(), buttonSource)
	require.NoError(t, err)
	second, err := c.Compile(context.Background(), buttonSource)
	require.NoError(t, err)

	assert.Equal(t, first.Code, second.Code)
}
