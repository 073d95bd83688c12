// Package mock provides test double implementations of AI service interfaces.
//
// MockEmbedder returns deterministic unit vectors derived from an FNV hash of
// the text, so identical text always embeds identically. MockResponder echoes
// the last human message. Both accept function fields to inject failures.
//
//	provider := mock.NewMockProvider()
//	provider.GetMockPassageEmbedder().EmbedTextsFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
//	    return nil, errors.New("service unavailable")
//	}
package mock
