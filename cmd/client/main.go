package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/palemoky/scythe-bidder/internal/client"
	"github.com/palemoky/scythe-bidder/internal/logger"
	"github.com/palemoky/scythe-bidder/internal/protocol"
	"github.com/palemoky/scythe-bidder/internal/protocol/codec"
)

const help = `命令:
  create [base|ifa]   创建房间
  join <房间号>        加入房间
  leave               离开房间
  ready | unready     准备 / 取消准备
  bid <派系> <金额>     出价
  state               查询拍卖状态
  log [房间号]         查询事件日志
  rooms | online      房间列表 / 在线人数
  show                显示本地视图
  quit                退出`

func main() {
	serverAddr := flag.String("server", "localhost:1780", "服务器地址")
	flag.Parse()

	logger.Init("warn", true)

	c := client.NewClient(fmt.Sprintf("ws://%s/ws", *serverAddr))
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	err := c.Connect(ctx)
	cancel()
	if err != nil {
		log.Fatal().Err(err).Msg("connect failed")
	}
	defer c.Close()

	c.OnReconnecting = func(attempt, maxAttempts int) {
		fmt.Printf("连接断开，正在重连 (%d/%d)...\n", attempt, maxAttempts)
	}
	c.StartHeartbeat()

	var mu sync.Mutex
	view := client.NewAuctionView()
	go func() {
		for {
			msg, err := c.Receive()
			if err != nil {
				return
			}
			mu.Lock()
			if err := view.Apply(msg); err != nil {
				log.Warn().Err(err).Str("type", string(msg.Type)).Msg("apply message failed")
			}
			printMessage(msg, view, c.PlayerID())
			mu.Unlock()
		}
	}()

	fmt.Println(help)
	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}
		if fields[0] == "quit" || fields[0] == "exit" {
			return
		}
		if fields[0] == "show" {
			mu.Lock()
			_ = view.Render(os.Stdout)
			mu.Unlock()
			continue
		}
		if err := run(c, fields); err != nil {
			fmt.Println("错误:", err)
		}
	}
}

func run(c *client.Client, fields []string) error {
	arg := func(i int) string {
		if i < len(fields) {
			return fields[i]
		}
		return ""
	}

	switch fields[0] {
	case "create":
		return c.CreateRoom(arg(1))
	case "join":
		if arg(1) == "" {
			return fmt.Errorf("需要房间号")
		}
		return c.JoinRoom(arg(1))
	case "leave":
		return c.LeaveRoom()
	case "ready":
		return c.Ready()
	case "unready":
		return c.CancelReady()
	case "bid":
		if len(fields) < 3 {
			return fmt.Errorf("用法: bid <派系> <金额>")
		}
		amount, err := strconv.ParseFloat(fields[2], 64)
		if err != nil {
			return fmt.Errorf("金额无效: %w", err)
		}
		return c.Bid(fields[1], amount)
	case "state":
		return c.GetState()
	case "log":
		return c.GetLog(arg(1))
	case "rooms":
		return c.GetRoomList()
	case "online":
		return c.GetOnlineCount()
	default:
		fmt.Println(help)
		return nil
	}
}

func printMessage(msg *protocol.Message, view *client.AuctionView, me string) {
	switch msg.Type {
	case protocol.MsgConnected, protocol.MsgReconnected:
		fmt.Printf("已连接，玩家 ID %s\n", me)
	case protocol.MsgRoomCreated, protocol.MsgRoomJoined:
		fmt.Printf("进入房间 %s (%s)\n", view.RoomCode, view.Edition)
	case protocol.MsgPlayerJoined, protocol.MsgPlayerLeft, protocol.MsgPlayerReady:
		for _, p := range view.Players {
			fmt.Printf("  [%d] %s ready=%v\n", p.Seat, p.Name, p.Ready)
		}
	case protocol.MsgAuctionStart, protocol.MsgAuctionState, protocol.MsgAuctionOver:
		_ = view.Render(os.Stdout)
	case protocol.MsgBidTurn:
		if view.IsMyTurn(me) {
			fmt.Println(">>> 轮到你出价")
		}
	case protocol.MsgBidResult:
		fmt.Println(view.Log[len(view.Log)-1])
	case protocol.MsgAuctionLog:
		for _, line := range view.Log {
			fmt.Println(line)
		}
	case protocol.MsgRoomListResult:
		if p, err := codec.ParsePayload[protocol.RoomListResultPayload](msg); err == nil {
			for _, r := range p.Rooms {
				fmt.Printf("  %s %s %d/%d\n", r.RoomCode, r.Edition, r.PlayerCount, r.MaxPlayers)
			}
		}
	case protocol.MsgOnlineCount:
		if p, err := codec.ParsePayload[protocol.OnlineCountPayload](msg); err == nil {
			fmt.Printf("在线 %d 人\n", p.Count)
		}
	case protocol.MsgError:
		if p, err := codec.ParsePayload[protocol.ErrorPayload](msg); err == nil {
			fmt.Printf("错误 %d: %s\n", p.Code, p.Message)
		}
	}
}
