package courier

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockDriver is a mock implementation of the Driver interface.
type MockDriver struct {
	mock.Mock
}

func (m *MockDriver) Execute(ctx context.Context, p *Payload) (*Result, error) {
	args := m.Called(ctx, p)
	if r := args.Get(0); r != nil {
		return r.(*Result), args.Error(1)
	}
	return nil, args.Error(1)
}

func testCommand(d Driver) *Command {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	return newCommand(d, "test", log, DefaultDispatchTimeout)
}

func TestCommand_Dispatch_Success(t *testing.T) {
	t.Parallel()

	driver := &MockDriver{}
	driver.On("Execute", mock.Anything, mock.MatchedBy(func(p *Payload) bool {
		return p.ID == "user_avatar.png" &&
			p.Destination == "avatars" &&
			p.Subject == "profile picture" &&
			string(p.Body) == "fake-png-bytes"
	})).Return(&Result{Status: StatusSuccess, Reference: "avatars/user_avatar.png"}, nil)

	result, err := testCommand(driver).
		To("avatars").
		Subject("profile picture").
		Name("avatar.png").
		Prefix("user_").
		Body([]byte("fake-png-bytes")).
		Dispatch(context.Background())

	require.NoError(t, err)
	require.Equal(t, StatusSuccess, result.Status)
	require.Equal(t, "avatars/user_avatar.png", result.Reference)
	driver.AssertExpectations(t)
}

func TestCommand_Dispatch_Twice(t *testing.T) {
	t.Parallel()

	driver := &MockDriver{}
	driver.On("Execute", mock.Anything, mock.Anything).
		Return(&Result{Status: StatusSuccess, Reference: "ok"}, nil)

	cmd := testCommand(driver).To("user@example.com").Content("hello")

	_, err := cmd.Dispatch(context.Background())
	require.NoError(t, err)

	_, err = cmd.Dispatch(context.Background())
	require.ErrorIs(t, err, ErrAlreadyExecuted)

	// The first call's side effect occurred exactly once.
	driver.AssertNumberOfCalls(t, "Execute", 1)
}

func TestCommand_Dispatch_TwiceAfterFailure(t *testing.T) {
	t.Parallel()

	driver := &MockDriver{}
	driver.On("Execute", mock.Anything, mock.Anything).
		Return(nil, errors.New("connection refused"))

	cmd := testCommand(driver).To("user@example.com").Content("hello")

	_, err := cmd.Dispatch(context.Background())
	require.ErrorIs(t, err, ErrDispatchFailed)

	_, err = cmd.Dispatch(context.Background())
	require.ErrorIs(t, err, ErrAlreadyExecuted)
	driver.AssertNumberOfCalls(t, "Execute", 1)
}

func TestCommand_AllowTypes_RejectsPayload(t *testing.T) {
	t.Parallel()

	driver := &MockDriver{}

	_, err := testCommand(driver).
		To("uploads").
		Name("malware.exe").
		AllowTypes("png", "jpg").
		Body([]byte("mz")).
		Dispatch(context.Background())

	require.ErrorIs(t, err, ErrUnsupportedType)
	driver.AssertNotCalled(t, "Execute")
}

func TestCommand_AllowTypes_AcceptsListedExtension(t *testing.T) {
	t.Parallel()

	driver := &MockDriver{}
	driver.On("Execute", mock.Anything, mock.Anything).
		Return(&Result{Status: StatusSuccess, Reference: "ok"}, nil)

	// Case and leading dots are normalized.
	_, err := testCommand(driver).
		To("uploads").
		Name("photo.PNG").
		AllowTypes(".png", "jpg").
		Body([]byte("png-bytes")).
		Dispatch(context.Background())

	require.NoError(t, err)
	driver.AssertExpectations(t)
}

func TestCommand_InvalidArguments(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		configure func(c *Command) *Command
	}{
		{"empty destination", func(c *Command) *Command { return c.To("  ") }},
		{"empty body", func(c *Command) *Command { return c.Body(nil) }},
		{"empty allowlist", func(c *Command) *Command { return c.AllowTypes() }},
		{"blank allowlist entry", func(c *Command) *Command { return c.AllowTypes("png", " ") }},
		{"name with separator", func(c *Command) *Command { return c.Name("a/b.png") }},
		{"prefix with separator", func(c *Command) *Command { return c.Prefix("users/") }},
		{"empty template ref", func(c *Command) *Command { return c.Template("", nil) }},
		{"negative timeout", func(c *Command) *Command { return c.Timeout(-time.Second) }},
		{"empty content type", func(c *Command) *Command { return c.ContentType(" ") }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			driver := &MockDriver{}
			cmd := testCommand(driver).To("user@example.com").Content("hello")
			cmd = tt.configure(cmd)

			require.ErrorIs(t, cmd.Err(), ErrInvalidArgument)

			_, err := cmd.Dispatch(context.Background())
			require.ErrorIs(t, err, ErrInvalidArgument)
			driver.AssertNotCalled(t, "Execute")
		})
	}
}

func TestCommand_FailedBuilderIgnoresLaterCalls(t *testing.T) {
	t.Parallel()

	driver := &MockDriver{}

	// The first violation wins; later valid calls cannot repair the builder.
	cmd := testCommand(driver).
		To("").
		To("user@example.com").
		Content("hello")

	_, err := cmd.Dispatch(context.Background())
	require.ErrorIs(t, err, ErrInvalidArgument)
	require.ErrorContains(t, err, "destination")
	driver.AssertNotCalled(t, "Execute")
}

func TestCommand_Dispatch_NoDestination(t *testing.T) {
	t.Parallel()

	driver := &MockDriver{}

	_, err := testCommand(driver).Content("hello").Dispatch(context.Background())
	require.ErrorIs(t, err, ErrNoDestination)
	driver.AssertNotCalled(t, "Execute")
}

func TestCommand_Dispatch_NoContent(t *testing.T) {
	t.Parallel()

	driver := &MockDriver{}

	_, err := testCommand(driver).To("user@example.com").Dispatch(context.Background())
	require.ErrorIs(t, err, ErrNoContent)
	driver.AssertNotCalled(t, "Execute")
}

func TestCommand_Dispatch_TemplateOnlyContent(t *testing.T) {
	t.Parallel()

	driver := &MockDriver{}
	driver.On("Execute", mock.Anything, mock.MatchedBy(func(p *Payload) bool {
		return p.TemplateRef == "welcome" && p.TemplateData["Name"] == "Alice"
	})).Return(&Result{Status: StatusSuccess, Reference: "ok"}, nil)

	_, err := testCommand(driver).
		To("alice@example.com").
		Template("welcome", map[string]any{"Name": "Alice"}).
		Dispatch(context.Background())

	require.NoError(t, err)
	driver.AssertExpectations(t)
}

func TestCommand_PrefixTransformIsDeterministic(t *testing.T) {
	t.Parallel()

	for range 10 {
		driver := &MockDriver{}
		driver.On("Execute", mock.Anything, mock.MatchedBy(func(p *Payload) bool {
			return p.ID == "user_avatar.png"
		})).Return(&Result{Status: StatusSuccess, Reference: "ok"}, nil)

		_, err := testCommand(driver).
			To("avatars").
			Name("avatar.png").
			Prefix("user_").
			Body([]byte("x")).
			Dispatch(context.Background())

		require.NoError(t, err)
		driver.AssertExpectations(t)
	}
}

func TestCommand_GeneratedIdentity(t *testing.T) {
	t.Parallel()

	var captured *Payload
	driver := &MockDriver{}
	driver.On("Execute", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			captured = args.Get(1).(*Payload)
		}).
		Return(&Result{Status: StatusSuccess, Reference: "ok"}, nil)

	_, err := testCommand(driver).
		To("uploads").
		Prefix("tmp_").
		Body([]byte("x")).
		Dispatch(context.Background())

	require.NoError(t, err)
	require.NotNil(t, captured)
	require.NotEqual(t, "tmp_", captured.ID)
	require.True(t, len(captured.ID) > len("tmp_"))
	require.Equal(t, "tmp_", captured.ID[:len("tmp_")])
}

func TestCommand_ContentTypeDerivedFromName(t *testing.T) {
	t.Parallel()

	driver := &MockDriver{}
	driver.On("Execute", mock.Anything, mock.MatchedBy(func(p *Payload) bool {
		return p.ContentType == "image/png"
	})).Return(&Result{Status: StatusSuccess, Reference: "ok"}, nil)

	_, err := testCommand(driver).
		To("uploads").
		Name("avatar.png").
		Body([]byte("x")).
		Dispatch(context.Background())

	require.NoError(t, err)
	driver.AssertExpectations(t)
}

func TestCommand_DriverFailureWrapped(t *testing.T) {
	t.Parallel()

	driverErr := errors.New("bucket does not exist")
	driver := &MockDriver{}
	driver.On("Execute", mock.Anything, mock.Anything).Return(nil, driverErr)

	_, err := testCommand(driver).
		To("uploads").
		Content("x").
		Dispatch(context.Background())

	require.ErrorIs(t, err, ErrDispatchFailed)
	require.ErrorIs(t, err, driverErr)
}

func TestCommand_ConfigurationAfterDispatchIsNoOp(t *testing.T) {
	t.Parallel()

	driver := &MockDriver{}
	driver.On("Execute", mock.Anything, mock.Anything).
		Return(&Result{Status: StatusSuccess, Reference: "ok"}, nil)

	cmd := testCommand(driver).To("user@example.com").Content("hello")

	_, err := cmd.Dispatch(context.Background())
	require.NoError(t, err)

	// Terminal state: no transition back to configuring.
	cmd.To("other@example.com").Subject("changed")
	require.NoError(t, cmd.Err())

	_, err = cmd.Dispatch(context.Background())
	require.ErrorIs(t, err, ErrAlreadyExecuted)
	driver.AssertNumberOfCalls(t, "Execute", 1)
}
