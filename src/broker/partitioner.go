package broker

import (
	"context"

	"github.com/twmb/franz-go/pkg/kgo"
)

type partitionHintKey struct{}

func withPartitionHint(ctx context.Context, partition int32) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, partitionHintKey{}, partition)
}

func partitionHint(r *kgo.Record) (int32, bool) {
	if r.Context == nil {
		return 0, false
	}
	hint, ok := r.Context.Value(partitionHintKey{}).(int32)
	return hint, ok
}

// HintedPartitioner sends records carrying a partition hint to exactly that
// partition and hashes the key of everything else (murmur2, like the Java client).
// kgo fails a record whose hint is outside the topic's partition range.
func HintedPartitioner() kgo.Partitioner {
	return &hintedPartitioner{fallback: kgo.StickyKeyPartitioner(nil)}
}

type hintedPartitioner struct {
	fallback kgo.Partitioner
}

func (p *hintedPartitioner) ForTopic(topic string) kgo.TopicPartitioner {
	return &hintedTopicPartitioner{fallback: p.fallback.ForTopic(topic)}
}

type hintedTopicPartitioner struct {
	fallback kgo.TopicPartitioner
}

func (p *hintedTopicPartitioner) RequiresConsistency(r *kgo.Record) bool {
	if _, ok := partitionHint(r); ok {
		return true
	}
	return p.fallback.RequiresConsistency(r)
}

func (p *hintedTopicPartitioner) Partition(r *kgo.Record, n int) int {
	if hint, ok := partitionHint(r); ok {
		return int(hint)
	}
	return p.fallback.Partition(r, n)
}
