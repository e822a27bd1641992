package usecases

import (
	"context"
	"errors"
	"strconv"
	"testing"

	"github.com/disgoorg/snowflake/v2"
	"github.com/sglre6355/machobot/internal/modules/music_player/domain"
)

func TestQueueService_Enqueue(t *testing.T) {
	guildID := snowflake.ID(1)
	voiceChannelID := snowflake.ID(2)
	textChannelID := snowflake.ID(3)

	tests := []struct {
		name            string
		input           EnqueueInput
		setupSession    func(*testing.T, *sessionFixture)
		setupDispatcher func(*mockDispatcher)
		wantErr         error
		wantPosition    int
		wantStarted     bool
		wantPlayed      int
		wantSession     bool
	}{
		{
			name: "first song starts playback",
			input: EnqueueInput{
				GuildID:        guildID,
				VoiceChannelID: voiceChannelID,
				TextChannelID:  textChannelID,
				Song:           mockSong("a"),
			},
			wantPosition: 0,
			wantStarted:  true,
			wantPlayed:   1,
			wantSession:  true,
		},
		{
			name: "second song is queued",
			input: EnqueueInput{
				GuildID:        guildID,
				VoiceChannelID: voiceChannelID,
				TextChannelID:  textChannelID,
				Song:           mockSong("b"),
			},
			setupSession: func(t *testing.T, f *sessionFixture) {
				seedSession(t, f.store, guildID, voiceChannelID, textChannelID, mockSong("a"))
			},
			wantPosition: 1,
			wantStarted:  false,
			wantPlayed:   0,
			wantSession:  true,
		},
		{
			name: "paused session stays paused",
			input: EnqueueInput{
				GuildID:        guildID,
				VoiceChannelID: voiceChannelID,
				Song:           mockSong("b"),
			},
			setupSession: func(t *testing.T, f *sessionFixture) {
				seedSession(t, f.store, guildID, voiceChannelID, textChannelID, mockSong("a"))
				mutate(t, f.store, guildID, func(s *domain.Session) error {
					return s.Pause(domain.PauseCauseCommand)
				})
			},
			wantPosition: 1,
			wantStarted:  false,
			wantSession:  true,
		},
		{
			name: "user not in voice",
			input: EnqueueInput{
				GuildID: guildID,
				Song:    mockSong("a"),
			},
			wantErr: ErrUserNotInVoice,
		},
		{
			name: "play failure leaves no session",
			input: EnqueueInput{
				GuildID:        guildID,
				VoiceChannelID: voiceChannelID,
				TextChannelID:  textChannelID,
				Song:           mockSong("a"),
			},
			setupDispatcher: func(m *mockDispatcher) {
				m.playErr = errors.New("node unavailable")
			},
			wantErr:     &DispatcherError{},
			wantSession: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newSessionFixture(t)
			if tt.setupSession != nil {
				tt.setupSession(t, f)
			}
			if tt.setupDispatcher != nil {
				tt.setupDispatcher(f.dispatcher)
			}

			service := NewQueueService(f.store, f.publisher)
			output, err := service.Enqueue(context.Background(), tt.input)

			if tt.wantErr != nil {
				assertErrorMatches(t, err, tt.wantErr)
				if _, ok := f.store.Get(guildID); ok != tt.wantSession {
					t.Errorf("expected session present=%v", tt.wantSession)
				}
				return
			}

			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if output.Position != tt.wantPosition {
				t.Errorf("expected position %d, got %d", tt.wantPosition, output.Position)
			}
			if output.Started != tt.wantStarted {
				t.Errorf("expected started=%v, got %v", tt.wantStarted, output.Started)
			}
			if len(f.dispatcher.played) != tt.wantPlayed {
				t.Errorf("expected %d play calls, got %d", tt.wantPlayed, len(f.dispatcher.played))
			}
			if len(f.publisher.playbackStarted) != tt.wantPlayed {
				t.Errorf("expected %d PlaybackStarted events, got %d", tt.wantPlayed, len(f.publisher.playbackStarted))
			}
			if _, ok := f.store.Get(guildID); ok != tt.wantSession {
				t.Errorf("expected session present=%v", tt.wantSession)
			}
		})
	}
}

func TestQueueService_Enqueue_PublishesNowPlaying(t *testing.T) {
	f := newSessionFixture(t)
	service := NewQueueService(f.store, f.publisher)

	song := mockSong("a")
	_, err := service.Enqueue(context.Background(), EnqueueInput{
		GuildID:        1,
		VoiceChannelID: 2,
		TextChannelID:  3,
		Song:           song,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(f.publisher.playbackStarted) != 1 {
		t.Fatalf("expected 1 event, got %d", len(f.publisher.playbackStarted))
	}
	event := f.publisher.playbackStarted[0]
	if event.TextChannelID != 3 || event.Song.ID != song.ID {
		t.Errorf("unexpected event: %+v", event)
	}
}

func TestQueueService_List(t *testing.T) {
	guildID := snowflake.ID(1)

	tests := []struct {
		name         string
		songs        int
		input        QueueListInput
		wantErr      error
		wantPage     int
		wantPages    int
		wantTotal    int
		wantPageSize int
		wantFirst    string
	}{
		{
			name:         "first page",
			songs:        26,
			input:        QueueListInput{GuildID: guildID, Page: 1},
			wantPage:     1,
			wantPages:    3,
			wantTotal:    25,
			wantPageSize: 10,
			wantFirst:    "Song 1",
		},
		{
			name:         "last partial page",
			songs:        26,
			input:        QueueListInput{GuildID: guildID, Page: 3},
			wantPage:     3,
			wantPages:    3,
			wantTotal:    25,
			wantPageSize: 5,
			wantFirst:    "Song 21",
		},
		{
			name:         "page clamped",
			songs:        26,
			input:        QueueListInput{GuildID: guildID, Page: 99},
			wantPage:     3,
			wantPages:    3,
			wantTotal:    25,
			wantPageSize: 5,
			wantFirst:    "Song 21",
		},
		{
			name:         "custom page size",
			songs:        6,
			input:        QueueListInput{GuildID: guildID, Page: 2, PageSize: 2},
			wantPage:     2,
			wantPages:    3,
			wantTotal:    5,
			wantPageSize: 2,
			wantFirst:    "Song 3",
		},
		{
			name:         "only current song",
			songs:        1,
			input:        QueueListInput{GuildID: guildID},
			wantPage:     1,
			wantPages:    1,
			wantTotal:    0,
			wantPageSize: 0,
		},
		{
			name:    "no session",
			input:   QueueListInput{GuildID: guildID},
			wantErr: ErrNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newSessionFixture(t)
			if tt.songs > 0 {
				songs := make([]domain.Song, tt.songs)
				for i := range songs {
					songs[i] = mockSong(strconv.Itoa(i))
				}
				seedSession(t, f.store, guildID, 2, 3, songs...)
			}

			service := NewQueueService(f.store, f.publisher)
			output, err := service.List(context.Background(), tt.input)

			if tt.wantErr != nil {
				assertErrorMatches(t, err, tt.wantErr)
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			if output.Current == nil || output.Current.Title != "Song 0" {
				t.Errorf("expected current song to be Song 0, got %v", output.Current)
			}
			if output.CurrentPage != tt.wantPage {
				t.Errorf("expected page %d, got %d", tt.wantPage, output.CurrentPage)
			}
			if output.TotalPages != tt.wantPages {
				t.Errorf("expected %d pages, got %d", tt.wantPages, output.TotalPages)
			}
			if output.TotalSongs != tt.wantTotal {
				t.Errorf("expected %d total songs, got %d", tt.wantTotal, output.TotalSongs)
			}
			if len(output.Songs) != tt.wantPageSize {
				t.Fatalf("expected %d songs on page, got %d", tt.wantPageSize, len(output.Songs))
			}
			if tt.wantFirst != "" && output.Songs[0].Title != tt.wantFirst {
				t.Errorf("expected first song %q, got %q", tt.wantFirst, output.Songs[0].Title)
			}
		})
	}
}

func TestQueueService_Advance(t *testing.T) {
	guildID := snowflake.ID(1)

	t.Run("plays next song in order", func(t *testing.T) {
		f := newSessionFixture(t)
		a, b, c := mockSong("a"), mockSong("b"), mockSong("c")
		seedSession(t, f.store, guildID, 2, 3, a, b, c)

		service := NewQueueService(f.store, f.publisher)
		if err := service.Advance(context.Background(), AdvanceInput{GuildID: guildID, SourceRef: a.SourceRef}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		inspect(t, f.store, guildID, func(s *domain.Session) {
			if s.Current().ID != b.ID {
				t.Errorf("expected b to be current, got %s", s.Current().Title)
			}
			if s.Len() != 2 {
				t.Errorf("expected 2 songs, got %d", s.Len())
			}
		})
		if len(f.dispatcher.played) != 1 || f.dispatcher.played[0] != b.SourceRef {
			t.Errorf("expected b to be played, got %v", f.dispatcher.played)
		}
		if len(f.publisher.playbackStarted) != 1 {
			t.Errorf("expected PlaybackStarted event, got %d", len(f.publisher.playbackStarted))
		}
	})

	t.Run("last song removes session", func(t *testing.T) {
		f := newSessionFixture(t)
		a := mockSong("a")
		seedSession(t, f.store, guildID, 2, 3, a)

		service := NewQueueService(f.store, f.publisher)
		if err := service.Advance(context.Background(), AdvanceInput{GuildID: guildID, SourceRef: a.SourceRef}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if _, ok := f.store.Get(guildID); ok {
			t.Error("expected drained session to be removed")
		}
		if f.dispatcher.closes != 1 {
			t.Errorf("expected dispatcher to be closed once, got %d", f.dispatcher.closes)
		}
	})

	t.Run("stale track end is ignored", func(t *testing.T) {
		f := newSessionFixture(t)
		a, b := mockSong("a"), mockSong("b")
		seedSession(t, f.store, guildID, 2, 3, a, b)

		service := NewQueueService(f.store, f.publisher)
		if err := service.Advance(context.Background(), AdvanceInput{GuildID: guildID, SourceRef: "encoded-other"}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		inspect(t, f.store, guildID, func(s *domain.Session) {
			if s.Current().ID != a.ID {
				t.Error("expected queue to be unchanged")
			}
		})
		if len(f.dispatcher.played) != 0 {
			t.Error("expected no play call")
		}
	})

	t.Run("play failure rolls back", func(t *testing.T) {
		f := newSessionFixture(t)
		a, b := mockSong("a"), mockSong("b")
		seedSession(t, f.store, guildID, 2, 3, a, b)
		f.dispatcher.playErr = errors.New("node unavailable")

		service := NewQueueService(f.store, f.publisher)
		err := service.Advance(context.Background(), AdvanceInput{GuildID: guildID, SourceRef: a.SourceRef})
		assertErrorMatches(t, err, &DispatcherError{})

		inspect(t, f.store, guildID, func(s *domain.Session) {
			if s.Len() != 2 || s.Current().ID != a.ID {
				t.Error("expected queue to be unchanged")
			}
		})
	})

	t.Run("no session", func(t *testing.T) {
		f := newSessionFixture(t)
		service := NewQueueService(f.store, f.publisher)

		err := service.Advance(context.Background(), AdvanceInput{GuildID: guildID})
		assertErrorMatches(t, err, ErrNotFound)
	})
}

func TestQueueService_OrderingAcrossAdvance(t *testing.T) {
	guildID := snowflake.ID(1)
	f := newSessionFixture(t)
	service := NewQueueService(f.store, f.publisher)

	songs := []domain.Song{mockSong("a"), mockSong("b"), mockSong("c"), mockSong("d")}
	for _, song := range songs {
		_, err := service.Enqueue(context.Background(), EnqueueInput{
			GuildID:        guildID,
			VoiceChannelID: 2,
			Song:           song,
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	for i := 0; i < len(songs)-1; i++ {
		err := service.Advance(context.Background(), AdvanceInput{GuildID: guildID, SourceRef: songs[i].SourceRef})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		inspect(t, f.store, guildID, func(s *domain.Session) {
			if s.Current().ID != songs[i+1].ID {
				t.Errorf("after advance %d: expected %s, got %s", i, songs[i+1].Title, s.Current().Title)
			}
			if s.Len() != len(songs)-i-1 {
				t.Errorf("after advance %d: expected %d songs, got %d", i, len(songs)-i-1, s.Len())
			}
		})
	}
}
