package services_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/google/uuid"
	"github.com/sbilibin2017/gw-user-account/internal/models"
	"github.com/sbilibin2017/gw-user-account/internal/services"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProfileService_PublishesEvents(t *testing.T) {
	ctx := context.Background()
	id := uuid.New()

	setup := func(t *testing.T) (*services.ProfileService, *profileMocks, *services.MockKafkaWriter) {
		ctrl := gomock.NewController(t)
		m := &profileMocks{
			reader: services.NewMockProfileReader(ctrl),
			writer: services.NewMockProfileWriter(ctrl),
			media:  services.NewMockMediaUploader(ctrl),
			cache:  services.NewMockUserCache(ctrl),
		}
		kw := services.NewMockKafkaWriter(ctrl)
		return services.NewProfileService(m.reader, m.writer, m.media, m.cache, kw), m, kw
	}

	t.Run("account update", func(t *testing.T) {
		svc, m, kw := setup(t)
		m.writer.EXPECT().UpdateProfileFields(ctx, id, gomock.Any()).Return(&models.User{UserID: id}, nil)
		m.cache.EXPECT().Delete(ctx, id).Return(nil)
		kw.EXPECT().
			WriteMessages(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, msgs ...kafka.Message) error {
				require.Len(t, msgs, 1)
				var evt models.AccountEvent
				require.NoError(t, json.Unmarshal(msgs[0].Value, &evt))
				assert.Equal(t, models.EventAccountUpdated, evt.Type)
				assert.Equal(t, id.String(), evt.UserID)
				assert.NotEmpty(t, evt.EventID)
				require.Len(t, msgs[0].Headers, 1)
				assert.Equal(t, "type", msgs[0].Headers[0].Key)
				assert.Equal(t, []byte(models.EventAccountUpdated), msgs[0].Headers[0].Value)
				return nil
			})

		_, err := svc.UpdateAccount(ctx, id, models.AccountUpdateInput{Fullname: strPtr("Alice")})
		require.NoError(t, err)
	})

	t.Run("broker failure does not fail the update", func(t *testing.T) {
		svc, m, kw := setup(t)
		m.writer.EXPECT().UpdateProfileFields(ctx, id, gomock.Any()).Return(&models.User{UserID: id}, nil)
		m.cache.EXPECT().Delete(ctx, id).Return(nil)
		kw.EXPECT().WriteMessages(gomock.Any(), gomock.Any()).Return(errors.New("broker down"))

		user, err := svc.UpdateAccount(ctx, id, models.AccountUpdateInput{Fullname: strPtr("Alice")})
		require.NoError(t, err)
		assert.Equal(t, id, user.UserID)
	})

	t.Run("no event on failed update", func(t *testing.T) {
		svc, m, _ := setup(t)
		m.writer.EXPECT().UpdateProfileFields(ctx, id, gomock.Any()).Return(nil, errors.New("db down"))

		_, err := svc.UpdateAccount(ctx, id, models.AccountUpdateInput{Fullname: strPtr("Alice")})
		require.Error(t, err)
	})
}
