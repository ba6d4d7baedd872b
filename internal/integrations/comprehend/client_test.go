package comprehend

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	awscomprehend "github.com/aws/aws-sdk-go-v2/service/comprehend"
	"github.com/aws/aws-sdk-go-v2/service/comprehend/types"
	"github.com/stretchr/testify/require"
)

type fakeAPI struct {
	out     *awscomprehend.DetectSentimentOutput
	err     error
	gotText string
	calls   int
}

func (f *fakeAPI) DetectSentiment(_ context.Context, in *awscomprehend.DetectSentimentInput, _ ...func(*awscomprehend.Options)) (*awscomprehend.DetectSentimentOutput, error) {
	f.calls++
	f.gotText = aws.ToString(in.Text)
	return f.out, f.err
}

func scoreOutput(positive, negative float32) *awscomprehend.DetectSentimentOutput {
	return &awscomprehend.DetectSentimentOutput{
		SentimentScore: &types.SentimentScore{
			Positive: aws.Float32(positive),
			Negative: aws.Float32(negative),
		},
	}
}

func TestNew_Validates(t *testing.T) {
	_, err := New(nil)
	require.Error(t, err)
}

func TestScore_MapsClassScores(t *testing.T) {
	api := &fakeAPI{out: scoreOutput(0.9, 0.1)}
	c, err := New(api)
	require.NoError(t, err)

	score, magnitude, err := c.Score(context.Background(), "I love this chair")
	require.NoError(t, err)
	require.InDelta(t, 0.8, score, 1e-6)
	require.InDelta(t, 1.0, magnitude, 1e-6)
	require.Equal(t, "I love this chair", api.gotText)
}

func TestScore_NegativeDominant(t *testing.T) {
	api := &fakeAPI{out: scoreOutput(0.05, 0.85)}
	c, err := New(api)
	require.NoError(t, err)

	score, _, err := c.Score(context.Background(), "This product is terrible")
	require.NoError(t, err)
	require.InDelta(t, -0.8, score, 1e-6)
}

func TestScore_EmptyTextIsNeutralWithoutCall(t *testing.T) {
	api := &fakeAPI{}
	c, err := New(api)
	require.NoError(t, err)

	score, magnitude, err := c.Score(context.Background(), "   ")
	require.NoError(t, err)
	require.Zero(t, score)
	require.Zero(t, magnitude)
	require.Zero(t, api.calls)
}

func TestScore_ServiceError(t *testing.T) {
	api := &fakeAPI{err: errors.New("throttled")}
	c, err := New(api)
	require.NoError(t, err)

	_, _, err = c.Score(context.Background(), "text")
	require.Error(t, err)
}

func TestScore_MissingScore(t *testing.T) {
	api := &fakeAPI{out: &awscomprehend.DetectSentimentOutput{}}
	c, err := New(api)
	require.NoError(t, err)

	_, _, err = c.Score(context.Background(), "text")
	require.Error(t, err)
}
