package pay

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"time"

	"github.com/phpdave11/gofpdf"
	"github.com/skip2/go-qrcode"

	"parlour/models"
)

// Receipts renders PDF receipts with a signed QR code that front desk staff
// can scan to check a payment.
type Receipts struct {
	secret  []byte
	address string
}

func NewReceipts(secret, salonAddress string) *Receipts {
	return &Receipts{secret: []byte(secret), address: salonAddress}
}

// Payload returns bookingId|transactionId|signature.
func (rc *Receipts) Payload(b models.Booking) string {
	data := fmt.Sprintf("%s|%s", b.ID.Hex(), b.TransactionID)
	h := hmac.New(sha256.New, rc.secret)
	h.Write([]byte(data))
	return data + "|" + base64.StdEncoding.EncodeToString(h.Sum(nil))
}

// Render draws the receipt. A zero paidAt leaves the payment date out.
func (rc *Receipts) Render(b models.Booking, paidAt time.Time) ([]byte, error) {
	qrPNG, err := qrcode.Encode(rc.Payload(b), qrcode.Medium, 256)
	if err != nil {
		return nil, fmt.Errorf("generate qr code: %w", err)
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle("Payment receipt", true)
	pdf.AddPage()
	pdf.SetFont("Arial", "B", 16)
	pdf.Cell(40, 10, "Jerins Parlour - Payment Receipt")
	pdf.Ln(14)

	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetFont("Arial", "", 12)
	lines := []string{
		"Booking: " + b.ID.Hex(),
		"Service: " + b.Name,
		"Customer: " + b.Email,
	}
	if b.CustomerName != "" {
		lines = append(lines, "Name: "+b.CustomerName)
	}
	if b.Date != "" {
		lines = append(lines, "Appointment: "+b.Date+" "+b.Time)
	}
	lines = append(lines,
		fmt.Sprintf("Amount: $%.2f", b.Price),
		"Transaction: "+b.TransactionID,
	)
	if !paidAt.IsZero() {
		lines = append(lines, "Paid at: "+paidAt.UTC().Format(time.RFC1123))
	}
	for _, l := range lines {
		pdf.Cell(0, 10, tr(l))
		pdf.Ln(8)
	}
	pdf.Ln(4)
	pdf.SetFont("Arial", "I", 10)
	pdf.Cell(0, 10, tr(rc.address))

	opts := gofpdf.ImageOptions{ImageType: "PNG"}
	pdf.RegisterImageOptionsReader("qr", opts, bytes.NewReader(qrPNG))
	pdf.ImageOptions("qr", 150, 40, 40, 40, false, opts, 0, "")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}
