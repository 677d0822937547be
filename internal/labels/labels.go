package labels

import (
	"bytes"
	"encoding/json"
	"fmt"
	"image"
	"image/draw"
	"image/png"
	"strings"
	"time"

	"github.com/boombuler/barcode"
	"github.com/boombuler/barcode/qr"
	"github.com/jung-kurt/gofpdf"

	"github.com/stockgate/stockgate/internal/transferin"
)

type qrContent struct {
	TransferNo string `json:"transfer_no"`
	BoxID      string `json:"box_id"`
}

// RenderTransferLabelsPDF renders one A6 label page per box on the
// transfer. Each label carries a QR code that scanners feed back into
// the transfer-in scan endpoint.
func RenderTransferLabelsPDF(transfer transferin.Transfer, printedAt time.Time) ([]byte, error) {
	if len(transfer.Boxes) == 0 {
		return nil, fmt.Errorf("labels: transfer %s has no boxes", transfer.Number)
	}

	pdf := gofpdf.New("P", "mm", "A6", "")
	pdf.SetTitle("Transfer Box Labels", false)
	pdf.SetAutoPageBreak(false, 0)

	for _, box := range transfer.Boxes {
		content, err := json.Marshal(qrContent{
			TransferNo: transfer.Number,
			BoxID:      fmt.Sprintf("%d", box.ID),
		})
		if err != nil {
			return nil, err
		}
		qrPNG, err := renderQRPNG(string(content), 600)
		if err != nil {
			return nil, err
		}

		pdf.AddPage()
		pageW, _ := pdf.GetPageSize()

		article := strings.TrimSpace(box.Article)
		if article == "" {
			article = "Unlabelled Article"
		}

		pdf.SetFont("Helvetica", "B", 16)
		pdf.CellFormat(0, 9, transfer.Number, "", 1, "C", false, 0, "")

		pdf.SetFont("Helvetica", "B", 22)
		pdf.CellFormat(0, 11, fmt.Sprintf("BOX %d", box.ID), "", 1, "C", false, 0, "")

		opt := gofpdf.ImageOptions{ImageType: "PNG", ReadDpi: false}
		imageName := fmt.Sprintf("box-qr-%s-%d", transfer.Number, box.ID)
		pdf.RegisterImageOptionsReader(imageName, opt, bytes.NewReader(qrPNG))
		imgSize := 52.0
		pdf.ImageOptions(imageName, (pageW-imgSize)/2, 26, imgSize, imgSize, false, opt, 0, "")

		pdf.SetY(26 + imgSize + 4)
		pdf.SetFont("Helvetica", "B", 12)
		pdf.CellFormat(0, 7, article, "", 1, "C", false, 0, "")

		pdf.SetFont("Helvetica", "", 10)
		if box.BatchNo != "" {
			pdf.CellFormat(0, 5, "Batch: "+box.BatchNo, "", 1, "C", false, 0, "")
		}
		if box.TxNo != "" {
			pdf.CellFormat(0, 5, "Tx: "+box.TxNo, "", 1, "C", false, 0, "")
		}
		pdf.CellFormat(0, 5, fmt.Sprintf("Net %.2f kg / Gross %.2f kg", box.NetWeight, box.GrossWeight), "", 1, "C", false, 0, "")
		pdf.CellFormat(0, 5, transfer.FromLocation+" -> "+transfer.ToLocation, "", 1, "C", false, 0, "")
		pdf.CellFormat(0, 5, "Printed: "+printedAt.Format("02/01/2006"), "", 1, "C", false, 0, "")
	}

	var out bytes.Buffer
	if err := pdf.Output(&out); err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}

func renderQRPNG(value string, size int) ([]byte, error) {
	code, err := qr.Encode(value, qr.M, qr.Auto)
	if err != nil {
		return nil, err
	}
	scaled, err := barcode.Scale(code, size, size)
	if err != nil {
		return nil, err
	}
	normalized := toNRGBA(scaled)
	var qrPNG bytes.Buffer
	if err := png.Encode(&qrPNG, normalized); err != nil {
		return nil, err
	}
	return qrPNG.Bytes(), nil
}

func toNRGBA(src image.Image) *image.NRGBA {
	bounds := src.Bounds()
	dst := image.NewNRGBA(bounds)
	draw.Draw(dst, bounds, src, bounds.Min, draw.Src)
	return dst
}
