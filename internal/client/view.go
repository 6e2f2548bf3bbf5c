package client

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/palemoky/scythe-bidder/internal/protocol"
	"github.com/palemoky/scythe-bidder/internal/protocol/codec"
)

// AuctionView 客户端维护的房间与拍卖状态，由服务端消息驱动
type AuctionView struct {
	RoomCode     string
	Edition      string
	Players      []protocol.PlayerInfo
	Phase        string
	Combinations []protocol.CombinationInfo
	PlayOrder    []protocol.PlayerInfo
	CurrentTurn  string
	Log          []string
	Summary      string
}

// NewAuctionView 创建空视图
func NewAuctionView() *AuctionView {
	return &AuctionView{}
}

// Apply 用一条服务端消息更新视图，不相关的消息被忽略
func (v *AuctionView) Apply(msg *protocol.Message) error {
	switch msg.Type {
	case protocol.MsgRoomCreated:
		p, err := codec.ParsePayload[protocol.RoomCreatedPayload](msg)
		if err != nil {
			return err
		}
		v.Reset()
		v.RoomCode, v.Edition = p.RoomCode, p.Edition
		v.Players = []protocol.PlayerInfo{p.Player}

	case protocol.MsgRoomJoined:
		p, err := codec.ParsePayload[protocol.RoomJoinedPayload](msg)
		if err != nil {
			return err
		}
		v.Reset()
		v.RoomCode, v.Edition = p.RoomCode, p.Edition
		v.Players = append([]protocol.PlayerInfo(nil), p.Players...)

	case protocol.MsgPlayerJoined:
		p, err := codec.ParsePayload[protocol.PlayerJoinedPayload](msg)
		if err != nil {
			return err
		}
		v.Players = append(v.Players, p.Player)

	case protocol.MsgPlayerLeft:
		p, err := codec.ParsePayload[protocol.PlayerLeftPayload](msg)
		if err != nil {
			return err
		}
		for i, pl := range v.Players {
			if pl.ID == p.PlayerID {
				v.Players = append(v.Players[:i], v.Players[i+1:]...)
				break
			}
		}

	case protocol.MsgPlayerReady:
		p, err := codec.ParsePayload[protocol.PlayerReadyPayload](msg)
		if err != nil {
			return err
		}
		for i := range v.Players {
			if v.Players[i].ID == p.PlayerID {
				v.Players[i].Ready = p.Ready
			}
		}

	case protocol.MsgAuctionStart:
		p, err := codec.ParsePayload[protocol.AuctionStartPayload](msg)
		if err != nil {
			return err
		}
		v.applyState(&p.State)

	case protocol.MsgAuctionState:
		p, err := codec.ParsePayload[protocol.AuctionStateDTO](msg)
		if err != nil {
			return err
		}
		v.applyState(p)

	case protocol.MsgReconnected:
		p, err := codec.ParsePayload[protocol.ReconnectedPayload](msg)
		if err != nil {
			return err
		}
		v.RoomCode = p.RoomCode
		if p.AuctionState != nil {
			v.applyState(p.AuctionState)
		}

	case protocol.MsgBidTurn:
		p, err := codec.ParsePayload[protocol.BidTurnPayload](msg)
		if err != nil {
			return err
		}
		v.CurrentTurn = p.PlayerID

	case protocol.MsgBidResult:
		p, err := codec.ParsePayload[protocol.BidResultPayload](msg)
		if err != nil {
			return err
		}
		for i := range v.Combinations {
			if v.Combinations[i].Faction == p.Faction {
				v.Combinations[i].CurrentBid = p.Amount
				v.Combinations[i].HolderID = p.PlayerID
				v.Combinations[i].HolderName = p.PlayerName
			}
		}
		v.Log = append(v.Log, fmt.Sprintf("%s bid %d on %s %s", p.PlayerName, p.Amount, p.Faction, p.Mat))

	case protocol.MsgAuctionOver:
		p, err := codec.ParsePayload[protocol.AuctionOverPayload](msg)
		if err != nil {
			return err
		}
		v.Phase = "complete"
		v.CurrentTurn = ""
		v.Combinations = append([]protocol.CombinationInfo(nil), p.Combinations...)
		v.Summary = p.Summary

	case protocol.MsgAuctionLog:
		p, err := codec.ParsePayload[protocol.AuctionLogPayload](msg)
		if err != nil {
			return err
		}
		v.Log = append([]string(nil), p.Log...)
	}
	return nil
}

func (v *AuctionView) applyState(s *protocol.AuctionStateDTO) {
	v.Phase = s.Phase
	if s.Edition != "" {
		v.Edition = s.Edition
	}
	v.Combinations = append([]protocol.CombinationInfo(nil), s.Combinations...)
	v.PlayOrder = append([]protocol.PlayerInfo(nil), s.PlayOrder...)
	v.CurrentTurn = s.CurrentTurn
	v.Log = append([]string(nil), s.Log...)
}

// Reset 清空视图
func (v *AuctionView) Reset() {
	*v = AuctionView{}
}

// Combination 按派系查找组合，大小写不敏感
func (v *AuctionView) Combination(faction string) (protocol.CombinationInfo, bool) {
	faction = strings.TrimSpace(faction)
	for _, c := range v.Combinations {
		if strings.EqualFold(c.Faction, faction) {
			return c, true
		}
	}
	return protocol.CombinationInfo{}, false
}

// MinimumBid 派系当前可接受的最低出价
func (v *AuctionView) MinimumBid(faction string) (int, bool) {
	c, ok := v.Combination(faction)
	if !ok {
		return 0, false
	}
	return c.CurrentBid + 1, true
}

// IsMyTurn 是否轮到指定玩家
func (v *AuctionView) IsMyTurn(playerID string) bool {
	return v.CurrentTurn != "" && v.CurrentTurn == playerID
}

// Render 以表格形式输出组合与出价
func (v *AuctionView) Render(w io.Writer) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "ROOM %s (%s)\t%s\n", v.RoomCode, v.Edition, v.Phase)
	fmt.Fprintln(tw, "FACTION\tMAT\tBID\tHOLDER")
	for _, c := range v.Combinations {
		bid, holder := "-", "-"
		if c.CurrentBid >= 0 {
			bid = fmt.Sprint(c.CurrentBid)
		}
		if c.HolderName != "" {
			holder = c.HolderName
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", c.Faction, c.Mat, bid, holder)
	}
	if v.Summary != "" {
		fmt.Fprintf(tw, "\n%s\n", v.Summary)
	}
	return tw.Flush()
}
