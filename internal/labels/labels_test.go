package labels

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/stockgate/stockgate/internal/transferin"
)

func TestRenderTransferLabelsPDF(t *testing.T) {
	transfer := transferin.Transfer{
		Number:       "TR-1001",
		FromLocation: "Pune DC",
		ToLocation:   "Nagpur Store",
		Boxes: []transferin.Box{
			{ID: 11, Article: "Denim Jacket", BatchNo: "B-7", NetWeight: 12.5, GrossWeight: 13.2},
			{ID: 12, Article: "Denim Jacket", TxNo: "TX-88", NetWeight: 11.9, GrossWeight: 12.6},
		},
	}

	pdf, err := RenderTransferLabelsPDF(transfer, time.Date(2026, 8, 30, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.NotEmpty(t, pdf)
	require.True(t, bytes.HasPrefix(pdf, []byte("%PDF")))
}

func TestRenderTransferLabelsPDFNoBoxes(t *testing.T) {
	_, err := RenderTransferLabelsPDF(transferin.Transfer{Number: "TR-2"}, time.Now())
	require.Error(t, err)
}

func TestRenderQRPNG(t *testing.T) {
	png, err := renderQRPNG(`{"transfer_no":"TR-1001","box_id":"11"}`, 200)
	require.NoError(t, err)
	require.NotEmpty(t, png)
}
