package mcp

import (
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// NewMCPServer creates a new MCP server backed by the bridge client
func NewMCPServer(name string, version string, client *Client) *server.MCPServer {
	s := server.NewMCPServer(
		name,
		version,
	)
	h := &handler{client: client}

	getStatusTool := mcp.NewTool("get_status",
		mcp.WithDescription("Show whether the bridge is logged in, connected, and which chat is open"),
	)

	loginTool := mcp.NewTool("login",
		mcp.WithDescription("Log the bridge in to the consultation backend"),
		mcp.WithString("email",
			mcp.Required(),
			mcp.Description("Account email"),
		),
		mcp.WithString("password",
			mcp.Required(),
			mcp.Description("Account password"),
		),
	)

	listLawyersTool := mcp.NewTool("list_lawyers",
		mcp.WithDescription("List lawyers available for a consultation, with their price"),
		mcp.WithString("query",
			mcp.Description("Optional search term matched against name, location and expertise"),
		),
	)

	openChatTool := mcp.NewTool("open_chat",
		mcp.WithDescription("Open the consultation chat with a lawyer, closing the chat that was open before"),
		mcp.WithString("counterparty_id",
			mcp.Required(),
			mcp.Description("ID of the lawyer (or client, when logged in as a lawyer)"),
		),
	)

	getChatTool := mcp.NewTool("get_chat",
		mcp.WithDescription("Retrieve the status of the open chat, what can be done next and pending notices"),
	)

	listMessagesTool := mcp.NewTool("list_messages",
		mcp.WithDescription("Retrieve the latest messages of the open chat"),
		mcp.WithNumber("limit",
			mcp.Description("Maximum number of messages to return (default 20)"),
		),
	)

	sendMessageTool := mcp.NewTool("send_message",
		mcp.WithDescription("Send a message in the open chat. Only possible once the lawyer accepted the request"),
		mcp.WithString("message",
			mcp.Required(),
			mcp.Description("The text of the message to send"),
		),
	)

	requestSessionTool := mcp.NewTool("request_session",
		mcp.WithDescription("Pay for a consultation from the wallet and send a chat request to the lawyer of the open chat"),
	)

	closeChatTool := mcp.NewTool("close_chat",
		mcp.WithDescription("Close the open chat"),
	)

	getWalletTool := mcp.NewTool("get_wallet",
		mcp.WithDescription("Show the wallet balance"),
		mcp.WithBoolean("refresh",
			mcp.Description("Re-fetch the balance from the backend (default false)"),
		),
	)

	addMoneyTool := mcp.NewTool("add_money",
		mcp.WithDescription("Top up the wallet"),
		mcp.WithNumber("amount",
			mcp.Required(),
			mcp.Description("Amount to add, must be positive"),
		),
	)

	listTransactionsTool := mcp.NewTool("list_transactions",
		mcp.WithDescription("List wallet transactions"),
	)

	listBookingsTool := mcp.NewTool("list_bookings",
		mcp.WithDescription("List recorded payment attempts and their outcome"),
		mcp.WithString("counterparty_id",
			mcp.Description("Optional lawyer ID to filter by"),
		),
		mcp.WithNumber("limit",
			mcp.Description("Maximum number of bookings to return (default 20)"),
		),
	)

	s.AddTool(getStatusTool, h.getStatus)
	s.AddTool(loginTool, h.login)
	s.AddTool(listLawyersTool, h.listLawyers)
	s.AddTool(openChatTool, h.openChat)
	s.AddTool(getChatTool, h.getChat)
	s.AddTool(listMessagesTool, h.listMessages)
	s.AddTool(sendMessageTool, h.sendMessage)
	s.AddTool(requestSessionTool, h.requestSession)
	s.AddTool(closeChatTool, h.closeChat)
	s.AddTool(getWalletTool, h.getWallet)
	s.AddTool(addMoneyTool, h.addMoney)
	s.AddTool(listTransactionsTool, h.listTransactions)
	s.AddTool(listBookingsTool, h.listBookings)

	return s
}

// StartMCPServer starts the MCP server
func StartMCPServer(s *server.MCPServer) error {
	return server.ServeStdio(s)
}
