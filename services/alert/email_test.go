package alertsvc

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	dummymail "github.com/trezcool/mahudhurio/services/email/dummy"
	testutil "github.com/trezcool/mahudhurio/tests"
)

func TestEmailSink_NotifyLowAttendance(t *testing.T) {
	mailSvc := dummymail.NewService()
	conf := testutil.NewConfig()
	sink := NewEmailSink(mailSvc, testutil.NewLogger(), conf)

	sink.NotifyLowAttendance("s1", "c1", 52.5)

	msgs := mailSvc.SentMessages()
	assert.Len(t, msgs, 1)
	assert.Equal(t, conf.AlertsEmail, msgs[0].To[0].Address)
	assert.Equal(t, "Low attendance alert", msgs[0].Subject)
	assert.True(t, strings.Contains(msgs[0].BodyStr, "52.50%"))
	assert.True(t, strings.Contains(msgs[0].BodyStr, "s1"))
	assert.True(t, strings.Contains(msgs[0].BodyStr, "c1"))
}
