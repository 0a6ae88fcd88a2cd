package serializer

import (
	"fmt"
	"testing"

	"github.com/semantic-machines/v-storage/lib/individual"
	"github.com/semantic-machines/v-storage/rpc/common"
)

// trafficSample is a message as it appears between client and server
type trafficSample struct {
	name string
	msg  common.Message
}

// storageTraffic returns the messages a typical session exchanges: individuals are
// written and read, tickets are looked up, a namespace is counted and listed.
func storageTraffic(b *testing.B) []trafficSample {
	doc := individual.New("d:employee_0001")
	doc.AddResource("rdf:type", individual.NewUri("v-s:Person"))
	doc.AddResource("rdfs:label", individual.NewString("Иванов Иван", individual.LangRU))
	doc.AddResource("rdfs:label", individual.NewString("Ivan Ivanov", individual.LangEN))
	doc.AddResource("v-s:birthday", individual.NewDatetime(315532800))
	doc.AddResource("v-s:salary", individual.NewDecimal(123456, -2))
	doc.AddResource("v-s:deleted", individual.NewBoolean(false))
	encoded, err := individual.Encode(doc)
	if err != nil {
		b.Fatalf("failed to encode individual: %v", err)
	}

	keys := make([]string, 1000)
	for i := range keys {
		keys[i] = fmt.Sprintf("d:employee_%04d", i)
	}

	return []trafficSample{
		{"PutIndividual", *common.NewPutRequest(doc.URI(), encoded)},
		{"GetIndividual", *common.NewGetResponse(encoded, 0, nil)},
		{"GetTicket", *common.NewGetRequest("3f2504e0-4f89-11d3-9a0c-0305e82c3301")},
		{"GetMissing", *common.NewGetResponse(nil, 1, fmt.Errorf("not found"))},
		{"PutAck", *common.NewPutResponse(0, nil)},
		{"Count", *common.NewCountResponse(2_000_000, 0, nil)},
		{"KeysPage", *common.NewKeysResponse(keys, 0, nil)},
		{"LargeValue", *common.NewPutRequest("blob", make([]byte, 64*1024))},
		{"Failure", *common.NewPutResponse(4, fmt.Errorf("medium: no space left on device"))},
	}
}

// BenchmarkRoundTrip measures one Serialize plus Deserialize per sample and reports
// the encoded size
func BenchmarkRoundTrip(b *testing.B) {
	for _, sample := range storageTraffic(b) {
		for name, factory := range testSerializers {
			b.Run(sample.name+"/"+name, func(b *testing.B) {
				s := factory()
				data, err := s.Serialize(sample.msg)
				if err != nil {
					b.Fatalf("serialize: %v", err)
				}
				b.ReportMetric(float64(len(data)), "bytes")
				b.ReportAllocs()
				b.ResetTimer()

				var out common.Message
				for i := 0; i < b.N; i++ {
					data, err = s.Serialize(sample.msg)
					if err != nil {
						b.Fatalf("serialize: %v", err)
					}
					if err = s.Deserialize(data, &out); err != nil {
						b.Fatalf("deserialize: %v", err)
					}
				}
			})
		}
	}
}
