package infrastructure

import (
	"context"
	"fmt"
	"math"
	"time"

	"diadesorte/domain/entities"
	"diadesorte/domain/interfaces"
	"diadesorte/domain/utils"

	"github.com/bwmarrin/discordgo"
	log "github.com/sirupsen/logrus"
)

const (
	colorAccumulated = 0xF1C40F
	colorPaid        = 0x2ECC71
)

// embedSender is the part of the discord session the notifier needs
type embedSender interface {
	ChannelMessageSendEmbed(channelID string, embed *discordgo.MessageEmbed, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

// DiscordNotifier posts new contest results to a Discord channel
type DiscordNotifier struct {
	session   embedSender
	channelID string
}

var _ interfaces.ContestNotifier = (*DiscordNotifier)(nil)

// NewDiscordSession opens a bot session for token
func NewDiscordSession(token string) (*discordgo.Session, error) {
	dg, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("failed to create Discord session: %w", err)
	}
	if err := dg.Open(); err != nil {
		return nil, fmt.Errorf("failed to open Discord connection: %w", err)
	}
	log.Info("Discord session opened")
	return dg, nil
}

// NewDiscordNotifier creates a notifier posting to channelID
func NewDiscordNotifier(session embedSender, channelID string) *DiscordNotifier {
	return &DiscordNotifier{session: session, channelID: channelID}
}

// NotifyNewContest posts the result of draw
func (n *DiscordNotifier) NotifyNewContest(ctx context.Context, draw *entities.Draw) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if _, err := n.session.ChannelMessageSendEmbed(n.channelID, ContestEmbed(draw), discordgo.WithContext(ctx)); err != nil {
		return fmt.Errorf("failed to post contest %d: %w", draw.ContestNumber, err)
	}

	log.WithFields(log.Fields{
		"contest":   draw.ContestNumber,
		"channelId": n.channelID,
	}).Info("Posted new contest to Discord")
	return nil
}

// ContestEmbed renders a draw as a Discord embed
func ContestEmbed(draw *entities.Draw) *discordgo.MessageEmbed {
	embed := &discordgo.MessageEmbed{
		Title:       fmt.Sprintf("Dia de Sorte - Concurso %d", draw.ContestNumber),
		Description: fmt.Sprintf("**%s**", utils.FormatNumbers(draw.Numbers)),
		Color:       colorPaid,
		Timestamp:   time.Now().Format(time.RFC3339),
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Data", Value: draw.FormattedDate(), Inline: true},
			{Name: "Mês da Sorte", Value: draw.LuckyMonth, Inline: true},
		},
	}

	if draw.Arrecadation > 0 {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:   "Arrecadação",
			Value:  "R$ " + utils.FormatShortNotation(int64(math.Round(draw.Arrecadation))),
			Inline: true,
		})
	}

	if draw.Accumulated {
		embed.Color = colorAccumulated
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:   "Acumulou!",
			Value:  "Ninguém acertou os 7 números",
			Inline: false,
		})
	}

	if draw.NextContestNumber > 0 {
		next := fmt.Sprintf("Concurso %d", draw.NextContestNumber)
		if draw.NextDrawDate != nil {
			next += " em " + draw.NextDrawDate.Format("02/01/2006")
		}
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:   "Próximo sorteio",
			Value:  next,
			Inline: true,
		})
	}
	if draw.NextEstimatedPrize > 0 {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:   "Prêmio estimado",
			Value:  utils.FormatBRL(draw.NextEstimatedPrize),
			Inline: true,
		})
	}

	return embed
}
