package logging

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"go.viam.com/test"
)

type sweepStats struct {
	Cells    int
	Collided int
	hidden   string
}

func newBufferLogger(name string, level Level) (Logger, *bytes.Buffer) {
	buf := &bytes.Buffer{}
	logger := &impl{name, NewAtomicLevelAt(level), true, []Appender{NewWriterAppender(buf)}}
	return logger, buf
}

func splitLine(t *testing.T, buf *bytes.Buffer) []string {
	t.Helper()
	line, err := buf.ReadString('\n')
	test.That(t, err, test.ShouldBeNil)
	return strings.Split(strings.TrimSuffix(line, "\n"), "\t")
}

func TestConsoleAppenderFormat(t *testing.T) {
	logger, buf := newBufferLogger("sweep", DEBUG)

	logger.Infow("starting")
	parts := splitLine(t, buf)
	test.That(t, len(parts), test.ShouldEqual, 5)
	test.That(t, len(parts[0]), test.ShouldEqual, len("2024-01-02T03:04:05.000Z"))
	test.That(t, parts[1], test.ShouldEqual, "INFO")
	test.That(t, parts[2], test.ShouldEqual, "sweep")
	test.That(t, parts[3], test.ShouldStartWith, "logging/impl_test.go:")
	test.That(t, parts[4], test.ShouldEqual, "starting")

	logger.Debugw("cell evaluated", "cell", 3)
	parts = splitLine(t, buf)
	test.That(t, parts[1], test.ShouldEqual, "DEBUG")
	test.That(t, parts[4], test.ShouldEqual, "cell evaluated")
	test.That(t, parts[5], test.ShouldEqual, `{"cell":3}`)

	logger.Warnw("sweep finished", "stats", sweepStats{Cells: 8, Collided: 2, hidden: "x"}, "dangling")
	parts = splitLine(t, buf)
	test.That(t, len(parts), test.ShouldEqual, 6)
	test.That(t, parts[1], test.ShouldEqual, "WARN")
	fields := map[string]any{}
	test.That(t, json.Unmarshal([]byte(parts[5]), &fields), test.ShouldBeNil)
	test.That(t, fields["stats"], test.ShouldResemble, map[string]any{"Cells": 8.0, "Collided": 2.0})
	test.That(t, fields["dangling"], test.ShouldEqual, "unpaired log key")
}

func TestLevelFiltering(t *testing.T) {
	logger, buf := newBufferLogger("", WARN)
	logger.Debugw("dropped")
	logger.Infow("dropped")
	test.That(t, buf.Len(), test.ShouldEqual, 0)

	logger.Errorw("kept")
	parts := splitLine(t, buf)
	test.That(t, parts[1], test.ShouldEqual, "ERROR")

	logger.SetLevel(DEBUG)
	test.That(t, logger.GetLevel(), test.ShouldEqual, DEBUG)
	logger.Debugw("now kept")
	parts = splitLine(t, buf)
	test.That(t, parts[4], test.ShouldEqual, "now kept")
}

func TestSublogger(t *testing.T) {
	logger, buf := newBufferLogger("main", INFO)
	sub := logger.Sublogger("worker")
	sub.Infow("hello")
	parts := splitLine(t, buf)
	test.That(t, parts[2], test.ShouldEqual, "main.worker")

	// Levels are copied, not shared.
	sub.SetLevel(ERROR)
	test.That(t, logger.GetLevel(), test.ShouldEqual, INFO)
	test.That(t, logger.Sublogger("a").Sublogger("b").(*impl).name, test.ShouldEqual, "main.a.b")
}

func TestObservedTestLogger(t *testing.T) {
	logger, observed := NewObservedTestLogger(t)
	logger.Infow("cell evaluated", "index", 4)
	logger.Sublogger("worker").Warnw("unreachable")

	test.That(t, observed.Len(), test.ShouldEqual, 2)
	test.That(t, observed.FilterMessage("cell evaluated").Len(), test.ShouldEqual, 1)
	entry := observed.All()[0]
	test.That(t, entry.ContextMap()["index"], test.ShouldEqual, int64(4))
	test.That(t, observed.All()[1].LoggerName, test.ShouldEqual, "worker")
	test.That(t, logger.Sync(), test.ShouldBeNil)
}

func TestLevelFromString(t *testing.T) {
	for _, tc := range []struct {
		in       string
		expected Level
	}{
		{"debug", DEBUG},
		{"INFO", INFO},
		{"Warn", WARN},
		{"warning", WARN},
		{"error", ERROR},
	} {
		level, err := LevelFromString(tc.in)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, level, test.ShouldEqual, tc.expected)
	}

	_, err := LevelFromString("verbose")
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "verbose")

	var level Level
	test.That(t, level.UnmarshalText([]byte("error")), test.ShouldBeNil)
	test.That(t, level, test.ShouldEqual, ERROR)
	encoded, err := json.Marshal(WARN)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, string(encoded), test.ShouldEqual, `"Warn"`)
}
