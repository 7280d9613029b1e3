package main

import (
	"log/slog"

	"unimate/internal/app/commands"
	chatsapp "unimate/internal/app/handlers/chats"
	listingsapp "unimate/internal/app/handlers/listings"
	pushapp "unimate/internal/app/handlers/push"
	reviewsapp "unimate/internal/app/handlers/reviews"
	savedapp "unimate/internal/app/handlers/saved"
	"unimate/internal/app/outbox"
	"unimate/internal/app/queries"
	"unimate/internal/app/realtime"
	"unimate/internal/domain/discovery"
	"unimate/internal/domain/expiry"
	"unimate/internal/domain/shared/media"
	"unimate/internal/infra/obs"
	"unimate/internal/infra/platform"
	"unimate/internal/infra/storage/s3"
)

// registry binds every command and query handler to the buses.
type registry struct {
	stores          *platform.Stores
	hub             *realtime.Hub
	policy          expiry.Policy
	listingUploader s3.Storage
	chatUploader    s3.Uploader
	vapidPublicKey  string
	studentCheck    bool
	logger          *slog.Logger
}

func (r registry) registerCommands(bus *commands.InMemoryBus) {
	f := r.stores.Factory
	box := r.stores.Outbox
	enc := outbox.JSONEventEncoder{}
	listingLog := obs.Component(r.logger, "listings")
	chatLog := obs.Component(r.logger, "chats")

	commands.RegisterHandler(bus, listingsapp.CreateListingCommand{}.Key(), &listingsapp.CreateListingHandler{
		UoWFactory:        f,
		Outbox:            box,
		Encoder:           enc,
		Uploader:          r.listingUploader,
		Expiry:            r.policy,
		StudentEmailCheck: r.studentCheck,
		Logger:            listingLog,
	})
	commands.RegisterHandler(bus, listingsapp.UpdateListingCommand{}.Key(), &listingsapp.UpdateListingHandler{
		UoWFactory: f, Outbox: box, Encoder: enc, Expiry: r.policy,
	})
	commands.RegisterHandler(bus, listingsapp.DeleteListingCommand{}.Key(), &listingsapp.DeleteListingHandler{
		UoWFactory: f, Outbox: box, Encoder: enc, Logger: listingLog,
	})
	commands.RegisterHandler(bus, listingsapp.AddListingMediaCommand{}.Key(), &listingsapp.AddListingMediaHandler{
		UoWFactory: f, Outbox: box, Encoder: enc, Uploader: r.listingUploader, Expiry: r.policy,
	})
	commands.RegisterHandler(bus, listingsapp.RemoveListingMediaCommand{}.Key(), &listingsapp.RemoveListingMediaHandler{
		UoWFactory: f, Storage: r.listingUploader, Outbox: box, Encoder: enc, Expiry: r.policy, Logger: listingLog,
	})
	commands.RegisterHandler(bus, listingsapp.SetPrimaryImageCommand{}.Key(), &listingsapp.SetPrimaryImageHandler{
		UoWFactory: f, Outbox: box, Encoder: enc, Expiry: r.policy,
	})

	commands.RegisterHandler(bus, chatsapp.OpenChatCommand{}.Key(), &chatsapp.OpenChatHandler{
		UoWFactory: f, Outbox: box, Encoder: enc, Logger: chatLog,
	})
	commands.RegisterHandler(bus, chatsapp.SendTextCommand{}.Key(), &chatsapp.SendTextHandler{
		UoWFactory: f, Outbox: box, Encoder: enc, Hub: r.hub, Logger: chatLog,
	})
	commands.RegisterHandler(bus, chatsapp.SendMediaCommand{}.Key(), &chatsapp.SendMediaHandler{
		UoWFactory: f, Outbox: box, Encoder: enc, Hub: r.hub, Uploader: r.chatUploader, Limits: media.ChatLimits, Logger: chatLog,
	})
	commands.RegisterHandler(bus, chatsapp.MarkReadCommand{}.Key(), &chatsapp.MarkReadHandler{
		UoWFactory: f, Outbox: box, Encoder: enc, Hub: r.hub,
	})
	commands.RegisterHandler(bus, chatsapp.MarkSoldCommand{}.Key(), &chatsapp.MarkSoldHandler{
		UoWFactory: f, Outbox: box, Encoder: enc, Hub: r.hub, Logger: chatLog,
	})

	reviewLog := obs.Component(r.logger, "reviews")
	commands.RegisterHandler(bus, reviewsapp.SubmitReviewCommand{}.Key(), &reviewsapp.SubmitReviewHandler{
		UoWFactory: f, Outbox: box, Encoder: enc, Logger: reviewLog,
	})
	commands.RegisterHandler(bus, reviewsapp.UpdateReviewCommand{}.Key(), &reviewsapp.UpdateReviewHandler{
		UoWFactory: f, Outbox: box, Encoder: enc, Logger: reviewLog,
	})
	commands.RegisterHandler(bus, reviewsapp.DeleteReviewCommand{}.Key(), &reviewsapp.DeleteReviewHandler{
		UoWFactory: f, Logger: reviewLog,
	})

	commands.RegisterHandler(bus, savedapp.SaveListingCommand{}.Key(), &savedapp.SaveListingHandler{UoWFactory: f})
	commands.RegisterHandler(bus, savedapp.UnsaveListingCommand{}.Key(), &savedapp.UnsaveListingHandler{UoWFactory: f})

	commands.RegisterHandler(bus, pushapp.RegisterSubscriptionCommand{}.Key(), &pushapp.RegisterSubscriptionHandler{UoWFactory: f})
	commands.RegisterHandler(bus, pushapp.UnregisterSubscriptionCommand{}.Key(), &pushapp.UnregisterSubscriptionHandler{UoWFactory: f})
}

func (r registry) registerQueries(bus *queries.InMemoryBus) {
	f := r.stores.Factory

	queries.RegisterHandler(bus, listingsapp.ListCategoriesQuery{}.Key(), listingsapp.ListCategoriesHandler{})
	queries.RegisterHandler(bus, listingsapp.GetListingQuery{}.Key(), &listingsapp.GetListingHandler{UoWFactory: f, Expiry: r.policy})
	queries.RegisterHandler(bus, listingsapp.RelatedListingsQuery{}.Key(), &listingsapp.RelatedListingsHandler{UoWFactory: f, Expiry: r.policy})
	queries.RegisterHandler(bus, listingsapp.MyListingsQuery{}.Key(), &listingsapp.MyListingsHandler{UoWFactory: f, Expiry: r.policy})
	queries.RegisterHandler(bus, listingsapp.SellerListingsQuery{}.Key(), &listingsapp.SellerListingsHandler{UoWFactory: f, Expiry: r.policy})
	queries.RegisterHandler(bus, listingsapp.MarketplaceQuery{}.Key(), &listingsapp.MarketplaceHandler{
		UoWFactory: f,
		Engine:     discovery.Engine{Expiry: r.policy},
		Logger:     obs.Component(r.logger, "marketplace"),
	})

	queries.RegisterHandler(bus, chatsapp.ListMessagesQuery{}.Key(), &chatsapp.ListMessagesHandler{UoWFactory: f})
	queries.RegisterHandler(bus, chatsapp.CountUnreadQuery{}.Key(), &chatsapp.CountUnreadHandler{UoWFactory: f})
	queries.RegisterHandler(bus, chatsapp.ListConversationsQuery{}.Key(), &chatsapp.ListConversationsHandler{UoWFactory: f, Logger: obs.Component(r.logger, "chats")})
	queries.RegisterHandler(bus, chatsapp.GetChatQuery{}.Key(), &chatsapp.GetChatHandler{UoWFactory: f})
	queries.RegisterHandler(bus, chatsapp.GetDealQuery{}.Key(), &chatsapp.GetDealHandler{UoWFactory: f})
	queries.RegisterHandler(bus, chatsapp.ListDealsQuery{}.Key(), &chatsapp.ListDealsHandler{UoWFactory: f})
	queries.RegisterHandler(bus, chatsapp.ProfileStatsQuery{}.Key(), &chatsapp.ProfileStatsHandler{UoWFactory: f})

	queries.RegisterHandler(bus, reviewsapp.ListListingReviewsQuery{}.Key(), &reviewsapp.ListListingReviewsHandler{UoWFactory: f, Logger: obs.Component(r.logger, "reviews")})
	queries.RegisterHandler(bus, savedapp.ListSavedQuery{}.Key(), &savedapp.ListSavedHandler{UoWFactory: f, Expiry: r.policy})
	queries.RegisterHandler(bus, pushapp.VapidKeyQuery{}.Key(), pushapp.VapidKeyHandler{PublicKey: r.vapidPublicKey})
}
