package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"langpredict/internal/detection/detectiontest"
	"langpredict/internal/detection/profile"
)

func writeProfiles(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	for _, p := range detectiontest.Profiles() {
		require.NoError(t, writeProfile(filepath.Join(dir, p.Name), p))
	}
	return dir
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestDetect(t *testing.T) {
	dir := writeProfiles(t)
	input := t.TempDir()
	en := writeFile(t, input, "en.txt", "The weather in the north of the country is cold")
	fr := writeFile(t, input, "fr.txt", "Le temps dans le nord du pays est froid")

	out, err := run(t, "detect", "-d", dir, "-s", "7", en, fr)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[0], en+":[en:"), lines[0])
	assert.True(t, strings.HasPrefix(lines[1], fr+":[fr:"), lines[1])
}

func TestDetectReportsMissingFiles(t *testing.T) {
	dir := writeProfiles(t)
	_, err := run(t, "detect", "-d", dir, filepath.Join(dir, "missing.txt"))
	assert.EqualError(t, err, "1 of 1 files failed")
}

func TestBatchTest(t *testing.T) {
	dir := writeProfiles(t)
	samples := writeFile(t, t.TempDir(), "samples.tsv", strings.Join([]string{
		"en\tThe children walk past the shop on their way to school",
		"fr\tLes enfants passent devant la boutique en allant à l'école",
		"fr\tLe boulanger ouvre la boutique avant le lever du soleil",
		"no tab here",
	}, "\n"))

	out, err := run(t, "batchtest", "-d", dir, "-s", "1", samples)
	require.NoError(t, err)
	assert.Contains(t, out, "en (1/1=1.00): map[en:1]")
	assert.Contains(t, out, "fr (2/2=1.00): map[fr:2]")
	assert.Contains(t, out, "total: 3/3 = 1.000")
}

func TestGenProfileText(t *testing.T) {
	tmp := t.TempDir()
	corpus := writeFile(t, tmp, "corpus.txt", detectiontest.English)
	output := filepath.Join(tmp, "en")

	_, err := run(t, "genprofile-text", "-l", "en", "-o", output, corpus)
	require.NoError(t, err)

	f, err := os.Open(output)
	require.NoError(t, err)
	defer f.Close()
	p, err := profile.Decode(f)
	require.NoError(t, err)
	assert.Equal(t, "en", p.Name)
	assert.NotEmpty(t, p.Freq)

	_, err = run(t, "genprofile-text", corpus)
	assert.Error(t, err, "--lang is required")
}

func TestGenProfileFromAbstracts(t *testing.T) {
	dir := t.TempDir()
	abstract := strings.ReplaceAll(detectiontest.French, "\n", " ")
	writeFile(t, dir, "frwiki-20240101-abstract.xml",
		"<feed><doc><title>Test</title><abstract>"+abstract+"</abstract></doc></feed>")

	_, err := run(t, "genprofile", "-d", dir, "fr", "de")
	require.NoError(t, err)

	_, err = os.Stat(filepath.Join(dir, "profiles", "fr"))
	assert.NoError(t, err)
	_, err = os.Stat(filepath.Join(dir, "profiles", "de"))
	assert.True(t, os.IsNotExist(err))
}

func TestFindAbstractDump(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "enwiki-latest-abstract.xml.gz", "")
	writeFile(t, dir, "zh-cnwiki-latest-abstract.xml", "")

	got, err := findAbstractDump(dir, "en")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "enwiki-latest-abstract.xml.gz"), got)

	got, err = findAbstractDump(dir, "zh-cn")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "zh-cnwiki-latest-abstract.xml"), got)

	got, err = findAbstractDump(dir, "de")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestProfilesList(t *testing.T) {
	dir := writeProfiles(t)
	out, err := run(t, "profiles", "list", "-d", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "en ")
	assert.Contains(t, out, "ja ")
	assert.Contains(t, out, "fingerprint ")
}
