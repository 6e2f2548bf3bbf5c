package protocol

import "encoding/json"

// Message 基础消息结构
type Message struct {
	Type    MessageType     `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// MessageType 消息类型
type MessageType string

// 客户端 → 服务端 消息类型
const (
	// 连接操作
	MsgReconnect MessageType = "reconnect" // 断线重连
	MsgPing      MessageType = "ping"      // 心跳 ping

	// 房间操作
	MsgCreateRoom  MessageType = "create_room"  // 创建房间
	MsgJoinRoom    MessageType = "join_room"    // 加入房间
	MsgLeaveRoom   MessageType = "leave_room"   // 离开房间
	MsgReady       MessageType = "ready"        // 准备就绪
	MsgCancelReady MessageType = "cancel_ready" // 取消准备

	// 拍卖操作
	MsgBid      MessageType = "bid"       // 出价
	MsgGetState MessageType = "get_state" // 获取拍卖状态
	MsgGetLog   MessageType = "get_log"   // 获取事件日志

	// 信息查询
	MsgGetRoomList          MessageType = "get_room_list"          // 获取房间列表
	MsgGetOnlineCount       MessageType = "get_online_count"       // 获取在线人数
	MsgGetMaintenanceStatus MessageType = "get_maintenance_status" // 获取维护状态
)

// 服务端 → 客户端 消息类型
const (
	// 连接相关
	MsgConnected     MessageType = "connected"      // 连接成功
	MsgReconnected   MessageType = "reconnected"    // 重连成功
	MsgPong          MessageType = "pong"           // 心跳 pong
	MsgPlayerOffline MessageType = "player_offline" // 玩家掉线通知
	MsgPlayerOnline  MessageType = "player_online"  // 玩家上线通知
	MsgOnlineCount   MessageType = "online_count"   // 在线人数

	// 房间相关
	MsgRoomCreated  MessageType = "room_created"  // 房间创建成功
	MsgRoomJoined   MessageType = "room_joined"   // 加入房间成功
	MsgPlayerJoined MessageType = "player_joined" // 其他玩家加入
	MsgPlayerLeft   MessageType = "player_left"   // 玩家离开
	MsgPlayerReady  MessageType = "player_ready"  // 玩家准备

	// 拍卖流程
	MsgAuctionStart MessageType = "auction_start" // 拍卖开始
	MsgBidTurn      MessageType = "bid_turn"      // 轮到出价
	MsgBidResult    MessageType = "bid_result"    // 出价结果
	MsgAuctionOver  MessageType = "auction_over"  // 拍卖结束
	MsgAuctionState MessageType = "auction_state" // 拍卖状态
	MsgAuctionLog   MessageType = "auction_log"   // 事件日志

	// 信息查询
	MsgRoomListResult MessageType = "room_list_result" // 房间列表结果

	// 系统通知
	MsgMaintenancePush MessageType = "maintenance_push" // 主动推送
	MsgMaintenancePull MessageType = "maintenance_pull" // 被动拉取

	// 错误
	MsgError MessageType = "error" // 错误消息
)
