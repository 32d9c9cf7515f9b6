package paymentprovider

import (
	"net/url"
	"strconv"

	"github.com/magabrotheeeer/meal-ordering/internal/config"
)

const vietQRBaseURL = "https://img.vietqr.io/image/"

// VietQR собирает ссылки на QR-картинки для банковского перевода.
type VietQR struct {
	bankID      string
	accountNo   string
	accountName string
	template    string
}

// NewVietQR создаёт генератор ссылок. Без реквизитов возвращает nil.
func NewVietQR(cfg config.VietQR) *VietQR {
	if cfg.BankID == "" || cfg.AccountNo == "" {
		return nil
	}
	template := cfg.Template
	if template == "" {
		template = "compact2"
	}
	return &VietQR{
		bankID:      cfg.BankID,
		accountNo:   cfg.AccountNo,
		accountName: cfg.AccountName,
		template:    template,
	}
}

// QuickLink ссылка на QR с суммой и назначением платежа memo.
func (v *VietQR) QuickLink(amount int64, memo string) string {
	q := url.Values{}
	q.Set("amount", strconv.FormatInt(amount, 10))
	q.Set("addInfo", memo)
	if v.accountName != "" {
		q.Set("accountName", v.accountName)
	}
	path := url.PathEscape(v.bankID + "-" + v.accountNo + "-" + v.template + ".png")
	return vietQRBaseURL + path + "?" + q.Encode()
}
