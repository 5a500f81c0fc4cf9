package descriptor

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleDescriptor = "ignored before any section\r\n" +
	"[General]\r\n" +
	"Method = 1\r\n" +
	"L1=1.54056\r\n" +
	"LM=1.5418\r\n" +
	"\r\n" +
	"[Goniometer]\r\n" +
	"MonoType=graphite\r\n" +
	"no equals sign here\r\n" +
	"[Comment]\r\n" +
	"  Quartz reference sample  \r\n" +
	"second line\r\n" +
	"[Intervals]\r\n" +
	"10.0; 80.0; 0.02; 1; 0; 0; 0; 0; 1; RAW\r\n" +
	"80.0; 90.0; 0.05; 1; 0; 0; 0; 0; 0; R02\r\n" +
	"short;record\r\n" +
	"[Future]\r\n" +
	"anything=goes\r\n"

func TestParse(t *testing.T) {
	desc := Parse(sampleDescriptor)

	assert.Equal(t, []string{"Quartz reference sample", "second line"}, desc.Comments)
	assert.Equal(t, map[string]string{"method": "1", "l1": "1.54056", "lm": "1.5418"}, desc.General)
	assert.Equal(t, map[string]string{"monotype": "graphite"}, desc.Goniometer)
	require.Len(t, desc.Intervals, 2)

	first := desc.Intervals[0]
	assert.Equal(t, 10.0, first.Start)
	assert.Equal(t, 80.0, first.End)
	assert.Equal(t, 0.02, first.Step)
	assert.Equal(t, 1, first.Status)
	assert.Equal(t, "raw", first.FileExtension)

	second := desc.Intervals[1]
	assert.Equal(t, 0, second.Status)
	assert.Equal(t, "r02", second.FileExtension)
	assert.True(t, desc.IsValid())
}

func TestParseLineEndings(t *testing.T) {
	for name, sep := range map[string]string{"lf": "\n", "crlf": "\r\n", "cr": "\r"} {
		t.Run(name, func(t *testing.T) {
			text := "[intervals]" + sep +
				"1;2;0.1;0;0;0;0;0;1;a" + sep +
				"3;4;0.1;0;0;0;0;0;1;b" + sep
			desc := Parse(text)
			require.Len(t, desc.Intervals, 2)
			assert.Equal(t, "b", desc.Intervals[1].FileExtension)
		})
	}
}

func TestParseIntervalCountMatchesLines(t *testing.T) {
	text := "[INTERVALS]\n" +
		"1;2;0.1;0;0;0;0;0;1;a\n" +
		"\n" +
		"   \n" +
		"2;3;0.1;0;0;0;0;0;1;b;extra;fields\n" +
		"3;4;0.1;0;0;0;0;0;0;c\n"
	desc := Parse(text)
	assert.Len(t, desc.Intervals, 3)
}

func TestParseDuplicateKeysLastWins(t *testing.T) {
	desc := Parse("[general]\nR=0.5\n r = 0.497 \n")
	assert.Equal(t, "0.497", desc.General["r"])
}

func TestParseValueKeepsLaterEquals(t *testing.T) {
	desc := Parse("[general]\nformula=a=b\n")
	assert.Equal(t, "a=b", desc.General["formula"])
}

func TestParseInvalid(t *testing.T) {
	t.Run("Empty", func(t *testing.T) {
		desc := Parse("")
		assert.False(t, desc.IsValid())
		assert.NotNil(t, desc.General)
		assert.NotNil(t, desc.Goniometer)
	})
	t.Run("OnlyShortRecords", func(t *testing.T) {
		desc := Parse("[Intervals]\n1;2;3\n4;5;6;7;8;9;10;11;12\n")
		assert.False(t, desc.IsValid())
	})
	t.Run("IntervalsBeforeSection", func(t *testing.T) {
		desc := Parse("1;2;0.1;0;0;0;0;0;1;a\n")
		assert.False(t, desc.IsValid())
	})
}

func TestParseUnparsableNumbers(t *testing.T) {
	desc := Parse("[intervals]\nabc;80;x;0;0;0;0;0;1.0;raw\nq;q;q;0;0;0;0;0;zz;raw\n")
	require.Len(t, desc.Intervals, 2)
	assert.True(t, math.IsNaN(desc.Intervals[0].Start))
	assert.Equal(t, 80.0, desc.Intervals[0].End)
	assert.True(t, math.IsNaN(desc.Intervals[0].Step))
	assert.Equal(t, 1, desc.Intervals[0].Status)
	assert.Equal(t, -1, desc.Intervals[1].Status)
	assert.True(t, desc.Intervals[1].Eligible())
}

func TestStepIgnoresUnknownSection(t *testing.T) {
	st := step(state{}, "[Extra]")
	assert.Equal(t, "extra", st.section)
	st = step(st, "key=value")
	assert.Empty(t, st.desc.General)
	assert.Empty(t, st.desc.Comments)
}
