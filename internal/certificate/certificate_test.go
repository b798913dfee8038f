package certificate_test

import (
	"context"
	"crypto/rand"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"pintcert/internal/certificate"
	"pintcert/internal/eventconfig"
	"pintcert/internal/hours"
	"pintcert/internal/privacy"
	id "pintcert/pkg/domain"
	dErrors "pintcert/pkg/domain-errors"
)

type ComposerSuite struct {
	suite.Suite

	privacy  *privacy.Service
	resolver *eventconfig.Resolver
	speaker  id.RoleID
	assets   map[string]bool
	composer *certificate.Composer
}

func TestComposerSuite(t *testing.T) {
	suite.Run(t, new(ComposerSuite))
}

func (s *ComposerSuite) SetupTest() {
	key := make([]byte, 32)
	_, err := rand.Read(key)
	s.Require().NoError(err)
	s.privacy, err = privacy.New(key, []byte("lookup"), []byte("signing"))
	s.Require().NoError(err)

	s.speaker = id.RoleID(uuid.New())
	s.resolver = eventconfig.NewResolver(eventconfig.StaticSource{
		"2025": {
			Colors: [4]string{"#1c1c3c", "#e8b74a", "#222222", "#b03a5b"},
			Images: eventconfig.Images{
				Logo:      "assets/logo.png",
				Signature: "assets/signature.png",
				Sponsor:   "assets/sponsor.png",
			},
			HourRules: eventconfig.HourRules{HoursPerDay: 4, HoursPerEvent: 40},
		},
	}, nil)

	s.assets = map[string]bool{
		"assets/logo.png":      true,
		"assets/signature.png": true,
		// sponsor asset intentionally absent
	}
	s.composer = certificate.NewComposer(
		s.resolver, s.privacy, hours.NewCalculator(s.resolver),
		"https://certificados.pintofscience.com.br/verify",
		certificate.WithAssetChecker(func(path string) bool { return s.assets[path] }),
	)
}

func (s *ComposerSuite) anaSilva() certificate.Input {
	name, err := s.privacy.Encrypt("Ana Silva")
	s.Require().NoError(err)
	email, err := s.privacy.Encrypt("ana@ex.com")
	s.Require().NoError(err)

	participantID := id.ParticipantID(uuid.New())
	eventID := id.EventID(uuid.New())

	return certificate.Input{
		ParticipantID:      participantID,
		EventID:            eventID,
		EncryptedName:      name,
		EncryptedEmail:     email,
		Signature:          s.privacy.Sign(participantID, eventID, "ana@ex.com", "Ana Silva"),
		Year:               2025,
		CalendarDates:      []string{"2025-05-19", "2025-05-20", "2025-05-21"},
		RoleID:             s.speaker,
		RoleName:           "Palestrante",
		CityName:           "São Paulo-SP",
		ParticipationDates: []string{"2025-05-19", "2025-05-21"},
	}
}

func (s *ComposerSuite) TestCompose_AnaSilva() {
	page, err := s.composer.Compose(context.Background(), s.anaSilva())
	s.Require().NoError(err)

	s.Equal(842.0, page.Size.Width)
	s.Equal(595.0, page.Size.Height)

	var narrative strings.Builder
	for _, op := range page.Ops {
		if text, ok := op.(certificate.TextOp); ok {
			narrative.WriteString(text.Text)
		}
	}
	body := narrative.String()

	// Two participation days at 4 h/day.
	s.Contains(body, "Ana Silva")
	s.Contains(body, "Palestrante")
	s.Contains(body, "São Paulo-SP")
	s.Contains(body, "19/05/2025, 21/05/2025")
	s.Contains(body, "8 horas")

	s.Run("sidebar uses the primary theme color", func() {
		rect, ok := page.Ops[0].(certificate.RectOp)
		s.Require().True(ok)
		s.Equal("#1c1c3c", rect.Color)
	})

	s.Run("no text op extends past the page", func() {
		measure := certificate.Measure(16)
		for _, op := range page.Ops {
			text, ok := op.(certificate.TextOp)
			if !ok || text.Size != 16 {
				continue
			}
			s.LessOrEqual(text.X+measure(text.Text, text.Bold), page.Size.Width,
				"fragment %q", text.Text)
		}
	})

	s.Run("footer carries the verification link", func() {
		s.Contains(page.VerifyURL, "https://certificados.pintofscience.com.br/verify?signature=")
		s.Contains(body, page.VerifyURL)
	})
}

func (s *ComposerSuite) TestCompose_SkipsMissingImages() {
	page, err := s.composer.Compose(context.Background(), s.anaSilva())
	s.Require().NoError(err)

	var paths []string
	for _, op := range page.Ops {
		if img, ok := op.(certificate.ImageOp); ok {
			paths = append(paths, img.Path)
		}
	}
	s.ElementsMatch([]string{"assets/logo.png", "assets/signature.png"}, paths)
}

func (s *ComposerSuite) TestCompose_UnreadableRecord() {
	in := s.anaSilva()
	in.EncryptedName = []byte("not a valid payload")

	_, err := s.composer.Compose(context.Background(), in)
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeInternal))
	s.ErrorIs(err, privacy.ErrDecrypt)
}

func (s *ComposerSuite) TestCompose_LongNameWraps() {
	in := s.anaSilva()
	longName := "Maria Auxiliadora da Conceição dos Santos Albuquerque de Oliveira e Figueiredo"
	encrypted, err := s.privacy.Encrypt(longName)
	s.Require().NoError(err)
	in.EncryptedName = encrypted

	page, err := s.composer.Compose(context.Background(), in)
	s.Require().NoError(err)

	// The name must survive wrapping intact across fragments.
	var body strings.Builder
	for _, op := range page.Ops {
		if text, ok := op.(certificate.TextOp); ok && text.Size == 16 {
			body.WriteString(text.Text)
		}
	}
	s.Contains(body.String(), longName)

	measure := certificate.Measure(16)
	for _, op := range page.Ops {
		if text, ok := op.(certificate.TextOp); ok && text.Size == 16 {
			s.LessOrEqual(text.X+measure(text.Text, text.Bold), page.Size.Width)
		}
	}
}
