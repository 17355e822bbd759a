package agent

import (
	"context"
	"math/rand"

	"github.com/sirupsen/logrus"

	"streetfire-server/pkg/api"
	"streetfire-server/pkg/client"
	"streetfire-server/pkg/logger"
)

// Bot - автопилот оператора (Headless Agent).
// Это ВНЕШНИЙ клиент: он подключается к серверу так же, как консоль,
// получает события и отвечает командами.
//
// Жизненный цикл:
//  1. NewBot -> бот получает уже подключённый client.Client.
//  2. Run -> подписка на события, работает до отмены контекста или разрыва соединения.
//  3. На каждое событие вызывается Decide, все выбранные команды отправляются серверу.
//  4. Decide ведёт игру по кругу: IDLE -> раунды -> MATCH_ENDED -> IDLE,
//     а во время раунда каждую секунду бьёт за обоих игроков.
type Bot struct {
	Client *client.Client
	rng    *rand.Rand
	inbox  chan api.Event
	log    *logrus.Entry
}

// attack - допустимое сочетание действия и рук.
type attack struct {
	action      api.PlayerAction
	left, right bool
}

var repertoire = []attack{
	{api.JabAttack, true, false},
	{api.JabAttack, false, true},
	{api.HookAttack, true, false},
	{api.UppercutAttack, false, true},
	{api.ChopAttack, true, false},
	{api.HadoukenAttack, true, true},
	{api.ShoryukenAttack, false, true},
	{api.SonicBoomAttack, true, true},
	{api.OneHundredHandSlapAttack, true, true},
	{api.Block, true, true},
}

func NewBot(c *client.Client, seed int64) *Bot {
	return &Bot{
		Client: c,
		rng:    rand.New(rand.NewSource(seed)),
		inbox:  make(chan api.Event, 256),
		log:    logger.Log.WithField("component", "bot"),
	}
}

// Run запускает цикл жизни бота. Клиент должен быть подключён.
func (b *Bot) Run(ctx context.Context) error {
	remove := b.Client.OnEvent(func(ev api.Event) {
		select {
		case b.inbox <- ev:
		default:
			// Бот не успевает: пропускаем событие, следующее всё равно придёт через секунду.
		}
	})
	defer remove()

	b.log.Info("Autopilot started")
	defer b.log.Info("Autopilot stopped")

	// Состояние могло смениться до подписки.
	if err := b.Client.QueryGameInfoRefresh(); err != nil {
		return err
	}

	done := b.Client.Done()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-done:
			return b.Client.Err()
		case ev := <-b.inbox:
			for _, cmd := range b.Decide(ev) {
				b.log.WithField("kind", cmd.Kind().String()).Debug("Autopilot command")
				if err := b.Client.Send(cmd); err != nil {
					return err
				}
			}
		}
	}
}

// Decide - мозг бота: по событию выбирает команды. Не обращается к сети.
func (b *Bot) Decide(ev api.Event) []api.Command {
	switch e := ev.(type) {
	case api.GameInfoRefresh:
		return b.onState(e.State)
	case api.GameStateChanged:
		return b.onState(e.New)
	case api.RoundPlayTimerChanged:
		return []api.Command{b.randomAction(1), b.randomAction(2)}
	}
	return nil
}

func (b *Bot) onState(state api.GameState) []api.Command {
	switch state {
	case api.IdleState, api.RoundEndedState:
		return []api.Command{api.InitiateNextState{State: api.RoundBeginningState}}
	case api.MatchEndedState:
		return []api.Command{api.InitiateNextState{State: api.IdleState}}
	case api.RoundInPlayState, api.TieBreakerRoundState:
		return []api.Command{b.randomAction(1), b.randomAction(2)}
	}
	return nil
}

func (b *Bot) randomAction(player uint8) api.Command {
	a := repertoire[b.rng.Intn(len(repertoire))]
	return api.ExecutePlayerAction{
		Player:    player,
		Action:    a.action,
		LeftHand:  a.left,
		RightHand: a.right,
	}
}
