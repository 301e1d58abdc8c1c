package telegram

import (
	"net/url"
	"strconv"
	"testing"
	"time"

	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testBotToken = "123456:TEST-token"

func signedInitData(authDate time.Time) url.Values {
	values := url.Values{}
	values.Set("query_id", "AAHdF6IQAAAAAN0XohDhrOrc")
	values.Set("user", `{"id":279058397,"first_name":"Ali","username":"ali","language_code":"ru"}`)
	values.Set("auth_date", strconv.FormatInt(authDate.Unix(), 10))
	values.Set("hash", SignInitData(values, testBotToken))
	return values
}

func TestValidateInitDataAcceptsSignedPayload(t *testing.T) {
	now := time.Now()
	raw := signedInitData(now.Add(-time.Minute)).Encode()

	data, err := ValidateInitData(raw, testBotToken, time.Hour, now)
	require.NoError(t, err)
	require.NotNil(t, data.User)
	assert.Equal(t, int64(279058397), data.User.ID)
	assert.Equal(t, "ru", data.User.LanguageCode)
	assert.Equal(t, "AAHdF6IQAAAAAN0XohDhrOrc", data.QueryID)
}

func TestValidateInitDataRejectsTampering(t *testing.T) {
	now := time.Now()
	values := signedInitData(now)
	values.Set("user", `{"id":1,"first_name":"Mallory"}`)

	_, err := ValidateInitData(values.Encode(), testBotToken, time.Hour, now)
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized))
}

func TestValidateInitDataRejectsWrongToken(t *testing.T) {
	now := time.Now()
	raw := signedInitData(now).Encode()

	_, err := ValidateInitData(raw, "other:token", time.Hour, now)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized))
}

func TestValidateInitDataRejectsExpired(t *testing.T) {
	now := time.Now()
	raw := signedInitData(now.Add(-48 * time.Hour)).Encode()

	_, err := ValidateInitData(raw, testBotToken, 24*time.Hour, now)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "expired")

	_, err = ValidateInitData(raw, testBotToken, 0, now)
	assert.NoError(t, err)
}

func TestValidateInitDataMissingHash(t *testing.T) {
	_, err := ValidateInitData("auth_date=1&user=%7B%7D", testBotToken, 0, time.Now())
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized))
}

func TestValidateInitDataWithoutToken(t *testing.T) {
	_, err := ValidateInitData("hash=abc", "", 0, time.Now())
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeDependency))
}
