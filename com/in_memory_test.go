package com

import (
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestInMemory_ReadChunks(t *testing.T) {
	tt := []struct {
		desc     string
		chunk    int
		expected []string
	}{
		{desc: "whole sentence", chunk: 64, expected: []string{"!AIVDM,1,1,,A,13u?etPv2;0n:dDPwUM1U1Cb069D,0*24\r\n"}},
		{desc: "exact length", chunk: 49, expected: []string{"!AIVDM,1,1,,A,13u?etPv2;0n:dDPwUM1U1Cb069D,0*24\r\n"}},
		{desc: "two chunks", chunk: 30, expected: []string{"!AIVDM,1,1,,A,13u?etPv2;0n:dDP", "wUM1U1Cb069D,0*24\r\n"}},
	}
	for _, tc := range tt {
		t.Run(tc.desc, func(t *testing.T) {
			d := NewInMemory()
			d.PrepareLines("!AIVDM,1,1,,A,13u?etPv2;0n:dDPwUM1U1Cb069D,0*24")
			buf := make([]byte, tc.chunk)

			actual := make([]string, 0, len(tc.expected))
			for !d.IsReadEmpty() {
				n, err := d.Read(buf)
				assert.NoError(t, err)
				actual = append(actual, string(buf[:n]))
			}

			assert.Equal(t, tc.expected, actual)
		})
	}
}

func TestInMemory_ReadClose(t *testing.T) {
	d := NewInMemory()

	go func() {
		time.Sleep(10 * time.Millisecond)
		d.Close()
	}()

	buf := make([]byte, 10)
	n, err := d.Read(buf)

	assert.Equal(t, io.EOF, err)
	assert.Equal(t, 0, n)
}

func TestInMemory_ReadLater(t *testing.T) {
	d := NewInMemory()

	go func() {
		time.Sleep(10 * time.Millisecond)
		d.PrepareLines("hello")
	}()

	buf := make([]byte, 10)
	n, err := d.Read(buf)

	assert.NoError(t, err)
	assert.Equal(t, "hello\r\n", string(buf[0:n]))
}

func TestInMemory_CloseWhenEmpty(t *testing.T) {
	d := NewInMemory()
	d.PrepareRead([]byte("hello"))
	d.CloseWhenEmpty(true)

	buf := make([]byte, 10)
	n, err := d.Read(buf)
	assert.NoError(t, err)
	assert.Equal(t, 5, n)
	assert.True(t, d.IsReadEmpty())

	_, err = d.Read(buf)
	assert.Equal(t, io.EOF, err)
}

func TestInMemory_Write(t *testing.T) {
	d := NewInMemory()

	go func() {
		d.Write([]byte("!AIBBM\r\n$AIABK\r\n"))
	}()

	assert.True(t, d.WaitUntilWritten(time.Second))
	assert.Equal(t, []string{"!AIBBM", "$AIABK"}, d.WrittenLines())

	d.ClearWrite()
	assert.Empty(t, d.Written())
	assert.False(t, d.WaitUntilWritten(10*time.Millisecond))
}
