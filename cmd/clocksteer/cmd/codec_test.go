/*
Copyright (c) Facebook, Inc. and its affiliates.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package cmd

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEncodeValue(t *testing.T) {
	cases := []struct {
		format string
		value  string
		want   string
	}{
		{format: "ntp", value: "1585147599.631495", want: "e225ed4f.a1a9a6ca"},
		{format: "ntp", value: "0", want: "00000000.00000000"},
		{format: "float", value: "1", want: "0x04800000"},
		{format: "float", value: "-1", want: "0x03000000"},
		{format: "short", value: "1.5", want: "0x00018000"},
		{format: "short", value: "-3", want: "0x00000000"},
	}
	for _, tc := range cases {
		t.Run(tc.format+"/"+tc.value, func(t *testing.T) {
			got, err := encodeValue(tc.format, tc.value)
			require.NoError(t, err)
			require.Equal(t, tc.want, got)
		})
	}
}

func TestEncodeValueErrors(t *testing.T) {
	_, err := encodeValue("ntp", "soon")
	require.Error(t, err)
	for _, v := range []string{"NaN", "Inf", "-Inf"} {
		_, err = encodeValue("ntp", v)
		require.ErrorContains(t, err, "not a finite number")
	}
	_, err = encodeValue("double", "1")
	require.ErrorContains(t, err, "unsupported format")
}

func TestDecodeValue(t *testing.T) {
	got, err := decodeValue("ntp", "e225ed4f.a1a9a6ca")
	require.NoError(t, err)
	require.Equal(t, "1585147599.631495 (2020-03-25T14:46:39.631495Z)", got)

	got, err = decodeValue("float", "0x04800000")
	require.NoError(t, err)
	require.Equal(t, "1", got)

	got, err = decodeValue("float", "03000000")
	require.NoError(t, err)
	require.Equal(t, "-1", got)

	got, err = decodeValue("short", "0x00018000")
	require.NoError(t, err)
	require.Equal(t, "1.500000", got)
}

func TestDecodeValueErrors(t *testing.T) {
	cases := []struct {
		format string
		value  string
	}{
		{format: "ntp", value: "e225ed4f"},
		{format: "ntp", value: "e225ed4g.a1a9a6ca"},
		{format: "ntp", value: "e225ed4f.1a1a9a6ca"},
		{format: "float", value: "0x1ffffffff"},
		{format: "short", value: "zz"},
		{format: "double", value: "0x0"},
	}
	for _, tc := range cases {
		_, err := decodeValue(tc.format, tc.value)
		require.Error(t, err, "%s %s", tc.format, tc.value)
	}
}
