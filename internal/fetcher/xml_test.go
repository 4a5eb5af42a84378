package fetcher

import (
	"context"
	"encoding/xml"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testProduct struct {
	XMLName  xml.Name `xml:"product"`
	Name     string   `xml:"productName"`
	Capacity string   `xml:"capacity"`
}

func TestStreamXML_Products(t *testing.T) {
	input := `<products>
		<product><productName>Porter</productName><capacity>0.33</capacity></product>
		<product><productName>Stout</productName><capacity>0.5</capacity></product>
	</products>`

	itemCh, errCh := StreamXML[testProduct](context.Background(), strings.NewReader(input), "product")

	var items []testProduct
	for item := range itemCh {
		items = append(items, item)
	}
	for err := range errCh {
		require.NoError(t, err)
	}

	require.Len(t, items, 2)
	assert.Equal(t, "Porter", items[0].Name)
	assert.Equal(t, "0.33", items[0].Capacity)
	assert.Equal(t, "Stout", items[1].Name)
}

func TestStreamXML_NestedAndSkipped(t *testing.T) {
	input := `<export>
		<meta><generated>today</generated></meta>
		<list><product><productName>Nested</productName></product></list>
		<other>skip</other>
	</export>`

	items, err := collectXML[testProduct](context.Background(), strings.NewReader(input), "product")
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "Nested", items[0].Name)
}

func TestStreamXML_Charset(t *testing.T) {
	// "Õlu" in ISO-8859-15: Õ is 0xD5.
	input := "<?xml version=\"1.0\" encoding=\"ISO-8859-15\"?>" +
		"<products><product><productName>\xd5lu</productName></product></products>"

	items, err := collectXML[testProduct](context.Background(), strings.NewReader(input), "product")
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "Õlu", items[0].Name)
}

func TestStreamXML_UnsupportedCharset(t *testing.T) {
	input := `<?xml version="1.0" encoding="x-made-up"?><products></products>`
	_, err := collectXML[testProduct](context.Background(), strings.NewReader(input), "product")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "charset")
}

func TestStreamXML_Malformed(t *testing.T) {
	input := `<products><product><productName>Broken</productName></products>`
	items, err := collectXML[testProduct](context.Background(), strings.NewReader(input), "product")
	require.Error(t, err)
	assert.Nil(t, items)
}

func TestStreamXML_Empty(t *testing.T) {
	items, err := collectXML[testProduct](context.Background(), strings.NewReader(""), "product")
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestStreamXML_ContextCancellation(t *testing.T) {
	var sb strings.Builder
	sb.WriteString("<products>")
	for range 10000 {
		sb.WriteString("<product><productName>x</productName></product>")
	}
	sb.WriteString("</products>")

	ctx, cancel := context.WithTimeout(context.Background(), time.Millisecond)
	defer cancel()
	time.Sleep(5 * time.Millisecond)

	_, err := collectXML[testProduct](ctx, strings.NewReader(sb.String()), "product")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "context")
}
