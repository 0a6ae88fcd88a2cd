package individual

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleIndividual() *Individual {
	indv := New("d:person_1")
	indv.AddResource("rdf:type", NewUri("v-s:Person"))
	indv.AddResource("rdfs:label", NewString("Иван", LangRU))
	indv.AddResource("rdfs:label", NewString("Ivan", LangEN))
	indv.AddResource("v-s:comment", NewString("plain", LangNone))
	indv.AddResource("v-s:age", NewInteger(42))
	indv.AddResource("v-s:created", NewDatetime(1700000000))
	indv.AddResource("v-s:weight", NewDecimal(7255, -2))
	indv.AddResource("v-s:deleted", NewBoolean(false))
	indv.AddResource("v-s:photo", NewBinary([]byte{0x00, 0xff, 0x10}))
	return indv
}

func TestEncodeParse(t *testing.T) {
	raw, err := Encode(sampleIndividual())
	require.NoError(t, err)

	var out Individual
	require.NoError(t, Parse(raw, &out))

	assert.Equal(t, "d:person_1", out.URI())
	assert.Equal(t, raw, out.Raw())
	assert.Equal(t, []string{
		"rdf:type", "rdfs:label", "v-s:age", "v-s:comment", "v-s:created",
		"v-s:deleted", "v-s:photo", "v-s:weight",
	}, out.Predicates())

	labels := out.Resources("rdfs:label")
	require.Len(t, labels, 2)
	assert.Equal(t, NewString("Иван", LangRU), labels[0])
	assert.Equal(t, NewString("Ivan", LangEN), labels[1])

	age, ok := out.First("v-s:age")
	require.True(t, ok)
	assert.Equal(t, int64(42), age.Int)

	weight, _ := out.First("v-s:weight")
	assert.Equal(t, Decimal, weight.Type)
	assert.Equal(t, int64(7255), weight.Int)
	assert.Equal(t, int64(-2), weight.Exponent)

	photo, _ := out.First("v-s:photo")
	assert.Equal(t, []byte{0x00, 0xff, 0x10}, photo.Bin)
}

func TestEncodeIsDeterministic(t *testing.T) {
	a, err := Encode(sampleIndividual())
	require.NoError(t, err)
	b, err := Encode(sampleIndividual())
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestParseInvalid(t *testing.T) {
	cases := map[string][]byte{
		"empty":     nil,
		"text":      []byte("not a valid individual"),
		"truncated": {0x92, 0xa3, 'a'},
		"wrongLen":  {0x93, 0xa1, 'a', 0x80, 0xc0},
	}
	valid, err := Encode(sampleIndividual())
	require.NoError(t, err)
	cases["trailing"] = append(append([]byte(nil), valid...), 0xc0)
	cases["concatenated"] = append(append([]byte(nil), valid...), valid...)

	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			var out Individual
			assert.Error(t, Parse(raw, &out))
		})
	}
}

func TestParseResetsTarget(t *testing.T) {
	raw, err := Encode(New("d:empty"))
	require.NoError(t, err)

	out := sampleIndividual()
	require.NoError(t, Parse(raw, out))
	assert.Equal(t, "d:empty", out.URI())
	assert.Empty(t, out.Predicates())
}

func TestIndividualParseFromRaw(t *testing.T) {
	raw, err := Encode(sampleIndividual())
	require.NoError(t, err)

	var indv Individual
	indv.SetRaw(raw)
	require.NoError(t, indv.Parse())
	assert.Equal(t, "d:person_1", indv.URI())
}
