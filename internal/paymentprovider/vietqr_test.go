package paymentprovider

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/meal-ordering/internal/config"
)

func TestVietQR_QuickLink(t *testing.T) {
	assert.Nil(t, NewVietQR(config.VietQR{BankID: "970422"}))

	v := NewVietQR(config.VietQR{BankID: "970422", AccountNo: "0123456789", AccountName: "MEAL CO"})
	require.NotNil(t, v)

	link := v.QuickLink(500000, "TENANT_ABCDEF01_PRO_202506")
	u, err := url.Parse(link)
	require.NoError(t, err)

	assert.Equal(t, "img.vietqr.io", u.Host)
	assert.Equal(t, "/image/970422-0123456789-compact2.png", u.Path)
	assert.Equal(t, "500000", u.Query().Get("amount"))
	assert.Equal(t, "TENANT_ABCDEF01_PRO_202506", u.Query().Get("addInfo"))
	assert.Equal(t, "MEAL CO", u.Query().Get("accountName"))
}
