package paramstore

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	ssmtypes "github.com/aws/aws-sdk-go-v2/service/ssm/types"
	"github.com/stretchr/testify/require"
)

type fakeSSM struct {
	out     *ssm.GetParameterOutput
	err     error
	gotName string
}

func (f *fakeSSM) GetParameter(_ context.Context, in *ssm.GetParameterInput, _ ...func(*ssm.Options)) (*ssm.GetParameterOutput, error) {
	f.gotName = aws.ToString(in.Name)
	return f.out, f.err
}

func TestNew_RequiresAPI(t *testing.T) {
	_, err := New(nil)
	require.Error(t, err)
}

func TestGetParameter_HappyPath(t *testing.T) {
	api := &fakeSSM{out: &ssm.GetParameterOutput{
		Parameter: &ssmtypes.Parameter{Value: aws.String("the-value")},
	}}
	c, err := New(api)
	require.NoError(t, err)

	v, err := c.GetParameter(context.Background(), " /ticket-agent/policy_context ")
	require.NoError(t, err)
	require.Equal(t, "the-value", v)
	require.Equal(t, "/ticket-agent/policy_context", api.gotName)
}

func TestGetParameter_RequiresName(t *testing.T) {
	c, err := New(&fakeSSM{})
	require.NoError(t, err)

	_, err = c.GetParameter(context.Background(), "   ")
	require.Error(t, err)
}

func TestGetParameter_APIError(t *testing.T) {
	c, err := New(&fakeSSM{err: errors.New("access denied")})
	require.NoError(t, err)

	_, err = c.GetParameter(context.Background(), "/name")
	require.Error(t, err)
}

func TestGetParameter_MissingValue(t *testing.T) {
	c, err := New(&fakeSSM{out: &ssm.GetParameterOutput{}})
	require.NoError(t, err)

	_, err = c.GetParameter(context.Background(), "/name")
	require.Error(t, err)
}
