package e2e

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"project-relay/domain"
)

type testRoomRelaySuite struct {
	BaseWsSuite
}

func TestRoomRelaySuite(t *testing.T) {
	suite.Run(t, &testRoomRelaySuite{})
}

func (s *testRoomRelaySuite) TestFullRoomFlow() {
	alice := domain.Identity{ID: "alice", Email: "alice@example.com"}
	bob := domain.Identity{ID: "bob", Email: "bob@example.com"}

	aliceConn := s.Join("Alice joins the room", alice)
	bobConn := s.Join("Bob joins the room", bob)
	// Let both subscriptions land server-side before broadcasting.
	time.Sleep(100 * time.Millisecond)

	// --- STEP 1: PLAIN RELAY ---
	s.Run("Step 1: Plain message reaches the other member", func() {
		s.Header("Alice posts a plain message")
		s.Send(aliceConn, "hello team")

		frame := s.Receive(bobConn)
		s.Require().Equal("hello team", frame.Message)
		s.Require().Equal(alice, frame.Sender)
	})

	// --- STEP 2: MODERATION ---
	s.Run("Step 2: Censored vocabulary is masked in transit", func() {
		s.Header("Alice posts a message containing a censored word")
		s.Send(aliceConn, "ready to blast off")

		frame := s.Receive(bobConn)
		s.Require().Equal("ready to ***** off", frame.Message)
	})

	// --- STEP 3: CODE COMPLETION ---
	s.Run("Step 3: Code marker fans the AI reply into the whole room", func() {
		// Scripts run on relay goroutines, so mismatches surface as
		// completion errors rather than direct assertions.
		s.Code.Script(func(prompt string) (string, error) {
			if prompt != "build a parser" {
				return "", fmt.Errorf("unexpected prompt %q", prompt)
			}
			return `{"text":"parser.go written"}`, nil
		})

		s.Header("Alice requests a code completion")
		s.Send(aliceConn, "@ai_code build a parser")

		aliceFrame := s.Receive(aliceConn)
		bobFrame := s.Receive(bobConn)
		for _, frame := range []domain.Frame{aliceFrame, bobFrame} {
			s.Require().Equal(`{"text":"parser.go written"}`, frame.Message)
			s.Require().Equal(domain.AISender, frame.Sender)
		}
	})

	// --- STEP 4: CHAT DEFAULT PROMPT ---
	s.Run("Step 4: Bare chat marker falls back to the greeting prompt", func() {
		s.Chat.Script(func(prompt string) (string, error) {
			if prompt != domain.DefaultChatPrompt {
				return "", fmt.Errorf("unexpected prompt %q", prompt)
			}
			return `{"text":"Hi team! How can I help?"}`, nil
		})

		s.Header("Alice pings the assistant with a bare marker")
		s.Send(aliceConn, "@ai")

		for _, frame := range []domain.Frame{s.Receive(aliceConn), s.Receive(bobConn)} {
			s.Require().Equal(`{"text":"Hi team! How can I help?"}`, frame.Message)
			s.Require().Equal(domain.AISender, frame.Sender)
		}
	})

	// --- STEP 5: FAILURE CONTAINMENT ---
	s.Run("Step 5: A failed completion is reported, not fatal", func() {
		s.Chat.Script(func(string) (string, error) {
			return "", errors.New("backend unavailable")
		})

		s.Header("Alice triggers a failing completion")
		s.Send(aliceConn, "@ai summarize")

		for _, frame := range []domain.Frame{s.Receive(aliceConn), s.Receive(bobConn)} {
			s.Require().Contains(frame.Message, "Sorry, I encountered an error")
			s.Require().Equal(domain.AISender, frame.Sender)
		}

		s.Header("The room still relays after the failure")
		s.Send(aliceConn, "still alive")
		s.Require().Equal("still alive", s.Receive(bobConn).Message)
	})

	// --- STEP 6: NO ECHO ---
	// Last on purpose: the silence probe burns the connection's read path.
	s.Run("Step 6: Plain messages never echo back to their author", func() {
		s.Header("Alice posts and hears nothing back")
		s.Send(aliceConn, "one more thing")
		s.Require().Equal("one more thing", s.Receive(bobConn).Message)
		s.ExpectSilence(aliceConn)
	})
}
