package main

import (
	"bytes"
	"testing"
)

func TestVersionCommand(t *testing.T) {
	rootCmd.SetArgs([]string{"version"})
	if err := rootCmd.Execute(); err != nil {
		t.Fatal(err)
	}
}

func TestTailRequiresSource(t *testing.T) {
	rootCmd.SetArgs([]string{"tail"})
	buf := &bytes.Buffer{}
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	if err := rootCmd.Execute(); err == nil {
		t.Error("tail without a source must fail")
	}
}
